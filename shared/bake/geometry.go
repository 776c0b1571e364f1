package bake

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"FortressModels/shared/model"
	"FortressModels/shared/pkg/objfile"
)

// quadIndices mantém o winding anti-horário visto do lado da normal.
var quadIndices = []uint16{0, 2, 1, 1, 2, 3}

// FaceQuad gera o quad de uma diretiva face, centrado no offset.
// A rotação fica registrada na diretiva mas não altera os vértices.
func FaceQuad(f model.Face) model.Primitive {
	width, height, normal := f.Direction.Basis()
	size := f.SizeOrDefault()
	offset := f.OffsetOrDefault()

	hw := width.Mul(size[0] / 2)
	hh := height.Mul(size[1] / 2)

	corners := [4]struct {
		pos mgl32.Vec3
		uv  mgl32.Vec2
	}{
		{hh.Sub(hw), mgl32.Vec2{0, 0}},
		{hh.Add(hw), mgl32.Vec2{1, 0}},
		{hw.Add(hh).Mul(-1), mgl32.Vec2{0, 1}},
		{hw.Sub(hh), mgl32.Vec2{1, 1}},
	}

	verts := make([]model.Vertex, 4)
	for i, c := range corners {
		verts[i] = model.Vertex{
			Position: c.pos.Add(offset),
			UV:       c.uv,
			Normal:   normal,
		}
	}

	return model.Primitive{
		Kind:     model.KindQuad,
		Vertices: verts,
		Indices:  append([]uint16(nil), quadIndices...),
		Normal:   normal,
		CullRule: f.CullRule,
	}
}

// InlineMesh gera a primitiva de uma diretiva mesh. Normais ausentes são
// calculadas somando as normais dos triângulos que usam cada vértice.
func InlineMesh(m model.Mesh) model.Primitive {
	indices := make([]uint16, 0, len(m.Indices)*3)
	for _, tri := range m.Indices {
		indices = append(indices, tri[0], tri[1], tri[2])
	}

	normals := m.Normals
	if len(normals) != len(m.Vertices) {
		normals = vertexNormals(m.Vertices, indices)
	}

	verts := make([]model.Vertex, len(m.Vertices))
	for i, p := range m.Vertices {
		verts[i] = model.Vertex{Position: p, UV: m.UVs[i], Normal: normals[i]}
	}

	return model.Primitive{
		Kind:     model.KindMesh,
		Vertices: verts,
		Indices:  indices,
		CullRule: m.CullRule,
	}
}

// ImportedMesh converte uma malha lida de um .obj. Sem nenhum registro vn,
// as normais são calculadas como em InlineMesh.
func ImportedMesh(mesh *objfile.Mesh) model.Primitive {
	normals := mesh.Normals
	if !slices.ContainsFunc(normals, func(n mgl32.Vec3) bool { return n != (mgl32.Vec3{}) }) {
		normals = vertexNormals(mesh.Vertices, mesh.Indices)
	}

	verts := make([]model.Vertex, len(mesh.Vertices))
	for i := range mesh.Vertices {
		verts[i] = model.Vertex{
			Position: mesh.Vertices[i],
			UV:       mesh.UVs[i],
			Normal:   normals[i],
		}
	}
	return model.Primitive{
		Kind:     model.KindMesh,
		Vertices: verts,
		Indices:  append([]uint16(nil), mesh.Indices...),
	}
}

func vertexNormals(positions []mgl32.Vec3, indices []uint16) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		n := positions[b].Sub(positions[a]).Cross(positions[c].Sub(positions[a]))
		out[a] = out[a].Add(n)
		out[b] = out[b].Add(n)
		out[c] = out[c].Add(n)
	}
	for i, n := range out {
		if n.Len() > 0 {
			out[i] = n.Normalize()
		}
	}
	return out
}
