package bake

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"FortressModels/shared/model"
)

// TextureTable é a tabela global de texturas: ordem de inserção, sem repetição.
type TextureTable struct {
	paths []string
	index map[string]int
}

// NewTextureTable cria uma tabela vazia.
func NewTextureTable() *TextureTable {
	return &TextureTable{index: make(map[string]int)}
}

// Intern retorna a posição de path, inserindo se necessário.
func (t *TextureTable) Intern(path string) int {
	if i, ok := t.index[path]; ok {
		return i
	}
	t.paths = append(t.paths, path)
	t.index[path] = len(t.paths) - 1
	return len(t.paths) - 1
}

// Paths retorna uma cópia da tabela.
func (t *TextureTable) Paths() []string {
	return append([]string(nil), t.paths...)
}

func (t *TextureTable) Len() int { return len(t.paths) }

// Intern resolve as cadeias de indireção de todas as primitivas e troca a
// referência de variável pela posição na tabela global de texturas.
// Deve rodar depois de todos os arquivos terem passado por Bake.
func (b *Baker) Intern() (*TextureTable, error) {
	if b.textures == nil {
		b.textures = NewTextureTable()
	}
	for _, baked := range b.order {
		resolved := make(map[int]int)
		for i := range baked.Primitives {
			ref := &baked.Primitives[i].Texture
			if ref.Stage != model.StageVariable {
				continue
			}
			slot, ok := resolved[ref.Index]
			if !ok {
				path, err := baked.Variables.Resolve(baked.File, ref.Index)
				if err != nil {
					return nil, err
				}
				slot = b.textures.Intern(path)
				resolved[ref.Index] = slot
			}
			ref.Stage = model.StageInterned
			ref.Index = slot
		}
	}
	b.logger.Printf("[Baker] %d texturas distintas em %d arquivos", b.textures.Len(), len(b.order))
	return b.textures, nil
}

// Finalize aplica o posicionamento do atlas às UVs de cada primitiva.
// placements é indexado pela tabela devolvida por Intern.
func (b *Baker) Finalize(placements []model.Placement) error {
	for _, baked := range b.order {
		for i := range baked.Primitives {
			p := &baked.Primitives[i]
			if p.Texture.Stage != model.StageInterned {
				return fmt.Errorf("%s: primitiva %d não está pronta para o atlas (estágio %d)", baked.File, i, p.Texture.Stage)
			}
			if p.Texture.Index >= len(placements) {
				return fmt.Errorf("%s: textura %d sem posição no atlas", baked.File, p.Texture.Index)
			}
			pl := placements[p.Texture.Index]
			remap := Remap(pl, p.Texture.Clip)
			for v := range p.Vertices {
				p.Vertices[v].UV = remap.Apply(p.Vertices[v].UV)
			}
			p.Texture = model.TextureRef{
				Stage: model.StageFinal,
				Clip:  p.Texture.Clip,
				Page:  pl.Page,
				Remap: remap,
			}
		}
	}
	return nil
}

// Remap combina o posicionamento com o recorte opcional em pixels.
func Remap(pl model.Placement, clip *model.Rect) model.UVRemap {
	r := model.UVRemap{Offset: pl.Offset, Scale: pl.Scale}
	if clip == nil || pl.Width == 0 || pl.Height == 0 {
		return r
	}
	w, h := float32(pl.Width), float32(pl.Height)
	r.Offset = r.Offset.Add(mgl32.Vec2{
		float32(clip.X) / w * pl.Scale[0],
		float32(clip.Y) / h * pl.Scale[1],
	})
	r.Scale = mgl32.Vec2{
		pl.Scale[0] * float32(clip.W) / w,
		pl.Scale[1] * float32(clip.H) / h,
	}
	return r
}
