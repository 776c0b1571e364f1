package model

import "github.com/go-gl/mathgl/mgl32"

// Rect é um recorte em pixels dentro de uma textura.
type Rect struct {
	X, Y, W, H uint32
}

// TextureBinding referencia uma variável da tabela pelo nome.
type TextureBinding struct {
	Name string
	Clip *Rect
}

// Directive é uma instrução de um arquivo de definição, na ordem do arquivo.
// Tipos: Params, Inherit, Face, Mesh, MeshImport.
type Directive interface {
	directive()
}

// Textured é implementado pelas diretivas que geram geometria.
type Textured interface {
	Directive
	Binding() TextureBinding
	Cull() CullRule
}

// Param é um par nome → expressão ("stone.png" ou "#outraVariavel").
type Param struct {
	Name string
	Expr string
}

// Params declara variáveis.
type Params struct {
	Entries []Param
}

// Inherit importa variáveis e primitivas de outra definição.
type Inherit struct {
	Target string
}

// Face gera um quad alinhado a uma direção.
type Face struct {
	Direction Direction
	Size      *mgl32.Vec2
	Offset    *mgl32.Vec3
	// Rotation é aceita e preservada, mas não altera a geometria.
	Rotation *float32
	Texture  TextureBinding
	CullRule CullRule
}

// MeshImport gera uma malha a partir de um arquivo .obj externo.
type MeshImport struct {
	Path     string
	Texture  TextureBinding
	CullRule CullRule
}

// Mesh gera uma malha declarada diretamente no arquivo.
type Mesh struct {
	Vertices []mgl32.Vec3
	UVs      []mgl32.Vec2
	Normals  []mgl32.Vec3 // opcional
	Indices  [][3]uint16
	Texture  TextureBinding
	CullRule CullRule
}

func (Params) directive()     {}
func (Inherit) directive()    {}
func (Face) directive()       {}
func (MeshImport) directive() {}
func (Mesh) directive()       {}

func (f Face) Binding() TextureBinding       { return f.Texture }
func (f MeshImport) Binding() TextureBinding { return f.Texture }
func (f Mesh) Binding() TextureBinding       { return f.Texture }

func (f Face) Cull() CullRule       { return f.CullRule }
func (f MeshImport) Cull() CullRule { return f.CullRule }
func (f Mesh) Cull() CullRule       { return f.CullRule }

// SizeOrDefault retorna (1,1) quando não especificado.
func (f Face) SizeOrDefault() mgl32.Vec2 {
	if f.Size == nil {
		return mgl32.Vec2{1, 1}
	}
	return *f.Size
}

// OffsetOrDefault retorna a origem quando não especificado.
func (f Face) OffsetOrDefault() mgl32.Vec3 {
	if f.Offset == nil {
		return mgl32.Vec3{}
	}
	return *f.Offset
}

// RotationOrDefault retorna 0 quando não especificado.
func (f Face) RotationOrDefault() float32 {
	if f.Rotation == nil {
		return 0
	}
	return *f.Rotation
}

// RawDefinition é o conteúdo de um arquivo de definição.
type RawDefinition struct {
	// Key é o caminho relativo à raiz de modelos, sem extensão ("wall/mod").
	Key        string
	File       string
	Directives []Directive
	// Transparent é nil quando o arquivo não declara transparência.
	Transparent *bool
}
