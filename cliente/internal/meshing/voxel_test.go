package meshing

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FortressModels/shared/bake"
	"FortressModels/shared/model"
)

// cube monta um cubo unitário com uma face por direção, cada face
// descartada quando o vizinho correspondente está ocupado.
func cube(pageOf func(model.Direction) int) *model.CompiledModel {
	m := &model.CompiledModel{}
	for _, d := range model.AllDirections {
		_, _, n := d.Basis()
		off := n.Mul(0.5)
		p := bake.FaceQuad(model.Face{Direction: d, Offset: &off, CullRule: model.WhenHidden(d)})
		p.Texture = model.TextureRef{Stage: model.StageFinal, Page: pageOf(d), Remap: model.Identity}
		m.Primitives = append(m.Primitives, p)
	}
	return m
}

func onePage(model.Direction) int { return 0 }

func TestBuildVoxelIsolated(t *testing.T) {
	res, err := BuildVoxel(cube(onePage), 0, mgl32.Vec3{}, White)
	require.NoError(t, err)

	assert.Equal(t, 6, res.Emitted)
	assert.Equal(t, 0, res.Culled)
	require.Len(t, res.Pages, 1)
	g := res.Pages[0]
	assert.Equal(t, 24, g.VertexCount())
	assert.Len(t, g.Indices, 36)
	assert.Len(t, g.UVs, 48)
	assert.Len(t, g.Colors, 96)

	// A segunda face é reindexada a partir do quarto vértice.
	assert.Equal(t, []uint16{4, 6, 5, 5, 6, 7}, g.Indices[6:12])
}

func TestBuildVoxelCullsHiddenFaces(t *testing.T) {
	mask := NeighborMask(func(d model.Direction) bool {
		return d == model.Up || d == model.Left
	})
	assert.Equal(t, model.Up.Bit()|model.Left.Bit(), mask)

	res, err := BuildVoxel(cube(onePage), mask, mgl32.Vec3{}, White)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Emitted)
	assert.Equal(t, 2, res.Culled)
	assert.Equal(t, 16, res.Pages[0].VertexCount())

	// Todos os vizinhos ocupados: nada a desenhar.
	res, err = BuildVoxel(cube(onePage), 0x3f, mgl32.Vec3{}, White)
	require.NoError(t, err)
	assert.Empty(t, res.Pages)
	assert.Equal(t, 6, res.Culled)
}

func TestBuildVoxelWhenVisible(t *testing.T) {
	p := bake.FaceQuad(model.Face{Direction: model.Down, CullRule: model.WhenVisible(model.Down)})
	m := &model.CompiledModel{Primitives: []model.Primitive{p}}

	res, err := BuildVoxel(m, 0, mgl32.Vec3{}, White)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Culled, "vizinho vazio descarta WhenVisible")

	res, err = BuildVoxel(m, model.Down.Bit(), mgl32.Vec3{}, White)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Emitted)
}

func TestBuildVoxelSplitsPagesAndOffsets(t *testing.T) {
	m := cube(func(d model.Direction) int {
		if d == model.Up {
			return 2
		}
		return 0
	})
	m.Transparent = true
	origin := mgl32.Vec3{10, 20, 30}

	res, err := BuildVoxel(m, 0, origin, White)
	require.NoError(t, err)
	assert.True(t, res.Transparent)
	assert.Equal(t, []int{0, 2}, res.PageOrder())
	assert.Equal(t, 4, res.Pages[2].VertexCount())
	assert.Equal(t, 20, res.Pages[0].VertexCount())

	// Face de cima em y = 0.5 deslocada pela origem.
	for i := 1; i < len(res.Pages[2].Vertices); i += 3 {
		assert.InDelta(t, 20.5, res.Pages[2].Vertices[i], 1e-6)
	}
}

func TestBuildVoxelNilModel(t *testing.T) {
	res, err := BuildVoxel(nil, 0, mgl32.Vec3{}, White)
	require.NoError(t, err)
	assert.Empty(t, res.Pages)
	assert.Zero(t, res.Emitted)
}

func TestAddPrimitiveOverflow(t *testing.T) {
	b := &MeshBuffer{}
	p := model.Primitive{Vertices: make([]model.Vertex, 1<<15)}
	require.NoError(t, b.AddPrimitive(&p, mgl32.Vec3{}, White))
	require.NoError(t, b.AddPrimitive(&p, mgl32.Vec3{}, White))
	assert.Error(t, b.AddPrimitive(&p, mgl32.Vec3{}, White))
}

func TestGeometryCloneIsIndependent(t *testing.T) {
	g := GeometryData{Vertices: []float32{1, 2, 3}, Indices: []uint16{0}}
	c := g.Clone()
	c.Vertices[0] = 9
	assert.Equal(t, float32(1), g.Vertices[0])
	assert.Nil(t, c.Normals)
}
