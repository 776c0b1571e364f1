package meshing

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"FortressModels/shared/model"
)

// GeometryData contém os buffers de vértices para uma malha.
type GeometryData struct {
	Vertices []float32
	Normals  []float32
	Colors   []uint8
	UVs      []float32
	Indices  []uint16
}

// VertexCount retorna o número de vértices.
func (g GeometryData) VertexCount() int {
	return len(g.Vertices) / 3
}

// Clone cria uma cópia profunda dos dados para evitar corrupção de memória.
func (g GeometryData) Clone() GeometryData {
	clone := GeometryData{}
	if len(g.Vertices) > 0 {
		clone.Vertices = append([]float32(nil), g.Vertices...)
	}
	if len(g.Normals) > 0 {
		clone.Normals = append([]float32(nil), g.Normals...)
	}
	if len(g.Colors) > 0 {
		clone.Colors = append([]uint8(nil), g.Colors...)
	}
	if len(g.UVs) > 0 {
		clone.UVs = append([]float32(nil), g.UVs...)
	}
	if len(g.Indices) > 0 {
		clone.Indices = append([]uint16(nil), g.Indices...)
	}
	return clone
}

// Global Pool para reciclar MeshBuffers e evitar alocação excessiva (GC Pressure)
var meshBufferPool = sync.Pool{
	New: func() interface{} {
		return &MeshBuffer{
			Geometry: GeometryData{
				Vertices: make([]float32, 0, 1024),
				Normals:  make([]float32, 0, 1024),
				Colors:   make([]uint8, 0, 1024),
				UVs:      make([]float32, 0, 1024),
				Indices:  make([]uint16, 0, 1024),
			},
		}
	},
}

// GetMeshBuffer aloca ou recicla um buffer vazio para meshing.
func GetMeshBuffer() *MeshBuffer {
	return meshBufferPool.Get().(*MeshBuffer)
}

// PutMeshBuffer zera os slices e devolve a memória para o Pool.
// O buffer não pode ser usado depois; copie a geometria com Clone antes.
func PutMeshBuffer(b *MeshBuffer) {
	if b == nil {
		return
	}
	b.Geometry.Vertices = b.Geometry.Vertices[:0]
	b.Geometry.Normals = b.Geometry.Normals[:0]
	b.Geometry.Colors = b.Geometry.Colors[:0]
	b.Geometry.UVs = b.Geometry.UVs[:0]
	b.Geometry.Indices = b.Geometry.Indices[:0]
	meshBufferPool.Put(b)
}

// MeshBuffer auxilia na construção de malhas dinâmicas indexadas.
type MeshBuffer struct {
	Geometry GeometryData
}

func (b *MeshBuffer) addVertex(v model.Vertex, offset mgl32.Vec3, c [4]uint8) {
	p := v.Position.Add(offset)
	b.Geometry.Vertices = append(b.Geometry.Vertices, p[0], p[1], p[2])
	b.Geometry.Normals = append(b.Geometry.Normals, v.Normal[0], v.Normal[1], v.Normal[2])
	b.Geometry.Colors = append(b.Geometry.Colors, c[0], c[1], c[2], c[3])
	b.Geometry.UVs = append(b.Geometry.UVs, v.UV[0], v.UV[1])
}

// AddPrimitive copia a primitiva deslocada por offset, reindexando contra
// os vértices que já estão no buffer.
func (b *MeshBuffer) AddPrimitive(p *model.Primitive, offset mgl32.Vec3, c [4]uint8) error {
	base := b.Geometry.VertexCount()
	if base+len(p.Vertices) > 1<<16 {
		return fmt.Errorf("buffer excede %d vértices", 1<<16)
	}
	for _, v := range p.Vertices {
		b.addVertex(v, offset, c)
	}
	for _, idx := range p.Indices {
		b.Geometry.Indices = append(b.Geometry.Indices, uint16(base)+idx)
	}
	return nil
}
