package atlas

import (
	"fmt"
	"image"
	"log"

	"github.com/anthonynsimon/bild/transform"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/draw"

	"FortressModels/shared/model"
)

// DefaultPageSize é o lado padrão de uma página em pixels.
const DefaultPageSize = 1024

// Atlas contém as páginas compostas e o posicionamento de cada textura,
// na mesma ordem da tabela de texturas.
type Atlas struct {
	PageSize   int
	Pages      []*image.RGBA
	Placements []model.Placement
}

// Build compõe as páginas. Texturas maiores que a página são reduzidas
// mantendo a proporção.
func Build(textures []image.Image, pageSize int, logger *log.Logger) (*Atlas, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("tamanho de página inválido: %d", pageSize)
	}
	if logger == nil {
		logger = log.Default()
	}

	fitted := make([]image.Image, len(textures))
	sizes := make([]image.Point, len(textures))
	for i, img := range textures {
		b := img.Bounds()
		if b.Empty() {
			return nil, fmt.Errorf("textura %d vazia", i)
		}
		var resized bool
		fitted[i], resized = fit(img, pageSize)
		if resized {
			logger.Printf("[Atlas] Textura %d reduzida de %dx%d para %dx%d", i, b.Dx(), b.Dy(), fitted[i].Bounds().Dx(), fitted[i].Bounds().Dy())
		}
		sizes[i] = fitted[i].Bounds().Size()
	}

	slots, pages, err := pack(sizes, pageSize)
	if err != nil {
		return nil, fmt.Errorf("falha ao empacotar atlas: %w", err)
	}

	a := &Atlas{
		PageSize:   pageSize,
		Pages:      make([]*image.RGBA, pages),
		Placements: make([]model.Placement, len(textures)),
	}
	for i := range a.Pages {
		a.Pages[i] = image.NewRGBA(image.Rect(0, 0, pageSize, pageSize))
	}

	ps := float32(pageSize)
	for i, s := range slots {
		src := fitted[i]
		draw.Draw(a.Pages[s.page], s.rect, src, src.Bounds().Min, draw.Src)

		orig := textures[i].Bounds()
		a.Placements[i] = model.Placement{
			Page:   s.page,
			Offset: mgl32.Vec2{float32(s.rect.Min.X) / ps, float32(s.rect.Min.Y) / ps},
			Scale:  mgl32.Vec2{float32(s.rect.Dx()) / ps, float32(s.rect.Dy()) / ps},
			Width:  uint32(orig.Dx()),
			Height: uint32(orig.Dy()),
		}
	}

	logger.Printf("[Atlas] %d texturas em %d páginas de %dpx", len(textures), pages, pageSize)
	return a, nil
}

// fit reduz img para caber em size×size, preservando a proporção.
func fit(img image.Image, size int) (image.Image, bool) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= size && h <= size {
		return img, false
	}
	if w >= h {
		h = max(1, h*size/w)
		w = size
	} else {
		w = max(1, w*size/h)
		h = size
	}
	return transform.Resize(img, w, h, transform.Linear), true
}
