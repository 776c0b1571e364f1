package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// PrimitiveKind distingue quads de malhas arbitrárias.
type PrimitiveKind uint8

const (
	KindQuad PrimitiveKind = iota
	KindMesh
)

func (k PrimitiveKind) String() string {
	if k == KindQuad {
		return "quad"
	}
	return "mesh"
}

// Vertex é um vértice com posição, UV e normal.
type Vertex struct {
	Position mgl32.Vec3
	UV       mgl32.Vec2
	Normal   mgl32.Vec3
}

// RefStage indica em que ponto do bake está a referência de textura.
type RefStage uint8

const (
	// StageVariable: Index aponta para a tabela de variáveis do arquivo.
	StageVariable RefStage = iota
	// StageInterned: Index aponta para a tabela global de texturas.
	StageInterned
	// StageFinal: Page e Remap estão resolvidos, Index não é mais usado.
	StageFinal
)

// UVRemap transforma UVs locais (0..1) em UVs da página do atlas.
type UVRemap struct {
	Offset mgl32.Vec2
	Scale  mgl32.Vec2
}

// Identity não altera UVs.
var Identity = UVRemap{Scale: mgl32.Vec2{1, 1}}

// Apply aplica offset + uv*scale.
func (r UVRemap) Apply(uv mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{r.Offset[0] + uv[0]*r.Scale[0], r.Offset[1] + uv[1]*r.Scale[1]}
}

// TextureRef acompanha a textura de uma primitiva ao longo do bake.
type TextureRef struct {
	Stage RefStage
	Index int
	Clip  *Rect
	Page  int
	Remap UVRemap
}

// Primitive é um quad ou malha pronto para o atlas.
type Primitive struct {
	Kind     PrimitiveKind
	Vertices []Vertex
	Indices  []uint16
	// Normal só é significativo para quads.
	Normal   mgl32.Vec3
	CullRule CullRule
	Texture  TextureRef
}

// Clone copia os buffers para que a primitiva possa ser reemitida por
// outro arquivo sem compartilhar memória.
func (p Primitive) Clone() Primitive {
	out := p
	out.Vertices = append([]Vertex(nil), p.Vertices...)
	out.Indices = append([]uint16(nil), p.Indices...)
	if p.Texture.Clip != nil {
		clip := *p.Texture.Clip
		out.Texture.Clip = &clip
	}
	return out
}

// CompiledModel é a entrada publicada no catálogo.
type CompiledModel struct {
	Transparent bool
	Primitives  []Primitive
}

// String resume o modelo para logs.
func (m *CompiledModel) String() string {
	if m == nil {
		return "<nenhum>"
	}
	quads, meshes := 0, 0
	for _, p := range m.Primitives {
		if p.Kind == KindQuad {
			quads++
		} else {
			meshes++
		}
	}
	return fmt.Sprintf("quads: %d malhas: %d", quads, meshes)
}

// Placement é a posição de uma textura dentro de uma página do atlas.
// Offset e Scale são normalizados (0..1) em relação à página; Width e
// Height guardam o tamanho em pixels da textura já posicionada.
type Placement struct {
	Page   int
	Offset mgl32.Vec2
	Scale  mgl32.Vec2
	Width  uint32
	Height uint32
}
