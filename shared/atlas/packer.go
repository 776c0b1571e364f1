// Package atlas empacota as texturas internadas em páginas quadradas e
// devolve o posicionamento de cada uma.
package atlas

import (
	"fmt"
	"image"
	"slices"
)

// slot é a posição em pixels de uma textura dentro de uma página.
type slot struct {
	page int
	rect image.Rectangle
}

// shelfPacker organiza retângulos em prateleiras: cada linha tem a altura
// do item mais alto, e uma página nova começa quando a linha não cabe.
type shelfPacker struct {
	size  int
	pages int

	x, y    int
	shelfH  int
	started bool
}

func newShelfPacker(size int) *shelfPacker {
	return &shelfPacker{size: size}
}

func (p *shelfPacker) place(w, h int) (slot, error) {
	if w > p.size || h > p.size {
		return slot{}, fmt.Errorf("textura %dx%d maior que a página %d", w, h, p.size)
	}
	if !p.started {
		p.pages = 1
		p.started = true
	}
	if p.x+w > p.size {
		p.x = 0
		p.y += p.shelfH
		p.shelfH = 0
	}
	if p.y+h > p.size {
		p.pages++
		p.x, p.y, p.shelfH = 0, 0, 0
	}

	s := slot{page: p.pages - 1, rect: image.Rect(p.x, p.y, p.x+w, p.y+h)}
	p.x += w
	p.shelfH = max(p.shelfH, h)
	return s, nil
}

// pack posiciona os tamanhos dados, do mais alto para o mais baixo
// (empate: mais largo primeiro, depois ordem original). O resultado é
// indexado como sizes.
func pack(sizes []image.Point, pageSize int) ([]slot, int, error) {
	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		if sizes[a].Y != sizes[b].Y {
			return sizes[b].Y - sizes[a].Y
		}
		return sizes[b].X - sizes[a].X
	})

	p := newShelfPacker(pageSize)
	out := make([]slot, len(sizes))
	for _, i := range order {
		s, err := p.place(sizes[i].X, sizes[i].Y)
		if err != nil {
			return nil, 0, err
		}
		out[i] = s
	}
	return out, p.pages, nil
}
