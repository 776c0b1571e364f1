package meshing

import (
	"fmt"
	"maps"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"FortressModels/shared/model"
)

// White é a cor de vértice padrão (sem tint).
var White = [4]uint8{255, 255, 255, 255}

// Result contém a geometria de um voxel separada por página do atlas.
type Result struct {
	Pages       map[int]GeometryData
	Transparent bool
	Emitted     int // primitivas desenhadas
	Culled      int // primitivas descartadas pelas regras de culling
}

// PageOrder lista as páginas presentes em ordem crescente.
func (r *Result) PageOrder() []int {
	return slices.Sorted(maps.Keys(r.Pages))
}

// NeighborMask monta a máscara de vizinhos ocupados (um bit por direção).
func NeighborMask(occupied func(d model.Direction) bool) uint8 {
	var mask uint8
	for _, d := range model.AllDirections {
		if occupied(d) {
			mask |= d.Bit()
		}
	}
	return mask
}

// BuildVoxel gera a geometria de um modelo posicionado em origin, pulando
// as primitivas cuja regra de culling descarta contra a máscara neighbors.
func BuildVoxel(m *model.CompiledModel, neighbors uint8, origin mgl32.Vec3, color [4]uint8) (*Result, error) {
	res := &Result{Pages: make(map[int]GeometryData)}
	if m == nil {
		return res, nil
	}
	res.Transparent = m.Transparent

	buffers := make(map[int]*MeshBuffer)
	defer func() {
		for _, b := range buffers {
			PutMeshBuffer(b)
		}
	}()

	for i := range m.Primitives {
		p := &m.Primitives[i]
		if p.CullRule.Culled(neighbors) {
			res.Culled++
			continue
		}
		page := p.Texture.Page
		buf, ok := buffers[page]
		if !ok {
			buf = GetMeshBuffer()
			buffers[page] = buf
		}
		if err := buf.AddPrimitive(p, origin, color); err != nil {
			return nil, fmt.Errorf("primitiva %d: %w", i, err)
		}
		res.Emitted++
	}

	for page, buf := range buffers {
		res.Pages[page] = buf.Geometry.Clone()
	}
	return res, nil
}
