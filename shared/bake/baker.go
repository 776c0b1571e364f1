// Package bake resolve herança e variáveis das definições e gera as
// primitivas prontas para o atlas.
package bake

import (
	"fmt"
	"log"
	"slices"

	"github.com/go-git/go-billy/v5"

	"FortressModels/shared/definition"
	"FortressModels/shared/model"
	"FortressModels/shared/pkg/objfile"
)

// Source fornece definições por chave ("wall/mod").
// *definition.Loader implementa esta interface.
type Source interface {
	Read(key string) (*model.RawDefinition, error)
	Exists(key string) bool
}

// Baked é o resultado de um arquivo. As primitivas passam pelos estágios
// Variable → Interned → Final (ver model.RefStage).
type Baked struct {
	Key         string
	File        string
	Variables   *VariableTable
	Primitives  []model.Primitive
	Transparent bool
}

// Compiled monta o modelo publicado no catálogo.
func (b *Baked) Compiled() *model.CompiledModel {
	return &model.CompiledModel{
		Transparent: b.Transparent,
		Primitives:  b.Primitives,
	}
}

// Baker processa definições em profundidade com memoização por chave.
// Não é seguro para uso concorrente.
type Baker struct {
	source Source
	meshes billy.Filesystem
	logger *log.Logger

	baked map[string]*Baked
	order []*Baked

	// pilha de herança em andamento
	stack []string

	meshCache map[string]*objfile.Mesh
	textures  *TextureTable
}

// NewBaker cria um baker. meshes é a raiz usada por mesh_import.
func NewBaker(source Source, meshes billy.Filesystem, logger *log.Logger) *Baker {
	if logger == nil {
		logger = log.Default()
	}
	return &Baker{
		source:    source,
		meshes:    meshes,
		logger:    logger,
		baked:     make(map[string]*Baked),
		meshCache: make(map[string]*objfile.Mesh),
	}
}

// Bake processa def (e tudo que ela herda). Chamadas repetidas para a
// mesma chave devolvem o resultado já calculado.
func (b *Baker) Bake(def *model.RawDefinition) (*Baked, error) {
	if done, ok := b.baked[def.Key]; ok {
		return done, nil
	}
	if i := slices.Index(b.stack, def.Key); i >= 0 {
		chain := append(slices.Clone(b.stack[i:]), def.Key)
		return nil, &CyclicInheritanceError{Chain: chain}
	}

	b.stack = append(b.stack, def.Key)
	defer func() { b.stack = b.stack[:len(b.stack)-1] }()

	out := &Baked{
		Key:       def.Key,
		File:      def.File,
		Variables: NewVariableTable(),
	}
	inheritedTransparent := false

	for _, d := range def.Directives {
		switch d := d.(type) {
		case model.Params:
			for _, p := range d.Entries {
				if !out.Variables.Declare(p.Name, p.Expr) {
					b.logger.Printf("[Baker] %s: variável %q repetida, mantendo a primeira", def.File, p.Name)
				}
			}

		case model.Inherit:
			parent, err := b.bakeKey(def.File, d.Target)
			if err != nil {
				return nil, err
			}
			out.Variables.Merge(parent.Variables)
			for _, p := range parent.Primitives {
				np := p.Clone()
				name := parent.Variables.At(p.Texture.Index).Name
				idx, _ := out.Variables.Lookup(name)
				np.Texture.Index = idx
				out.Primitives = append(out.Primitives, np)
			}
			if parent.Transparent {
				inheritedTransparent = true
			}

		case model.Face:
			p, err := b.textured(out, d, FaceQuad(d))
			if err != nil {
				return nil, err
			}
			out.Primitives = append(out.Primitives, p)

		case model.Mesh:
			p, err := b.textured(out, d, InlineMesh(d))
			if err != nil {
				return nil, err
			}
			out.Primitives = append(out.Primitives, p)

		case model.MeshImport:
			mesh, err := b.readMesh(d.Path)
			if err != nil {
				return nil, err
			}
			p, err := b.textured(out, d, ImportedMesh(mesh))
			if err != nil {
				return nil, err
			}
			out.Primitives = append(out.Primitives, p)

		default:
			return nil, fmt.Errorf("%s: diretiva desconhecida %T", def.File, d)
		}
	}

	if def.Transparent != nil {
		out.Transparent = *def.Transparent
	} else {
		out.Transparent = inheritedTransparent
	}

	b.baked[def.Key] = out
	b.order = append(b.order, out)
	return out, nil
}

// bakeKey resolve o alvo de um inherit.
func (b *Baker) bakeKey(from, key string) (*Baked, error) {
	if done, ok := b.baked[key]; ok {
		return done, nil
	}
	if i := slices.Index(b.stack, key); i >= 0 {
		return nil, &CyclicInheritanceError{Chain: append(slices.Clone(b.stack[i:]), key)}
	}
	if !b.source.Exists(key) {
		return nil, &MissingInheritedFileError{File: from, Target: key}
	}
	def, err := b.source.Read(key)
	if err != nil {
		return nil, err
	}
	return b.Bake(def)
}

// textured liga a textura da diretiva à variável correspondente.
func (b *Baker) textured(out *Baked, d model.Textured, p model.Primitive) (model.Primitive, error) {
	binding := d.Binding()
	idx, ok := out.Variables.Lookup(binding.Name)
	if !ok {
		return p, &UnresolvedVariableError{File: out.File, Binding: binding.Name}
	}
	p.Texture = model.TextureRef{Stage: model.StageVariable, Index: idx}
	p.CullRule = d.Cull()
	if binding.Clip != nil {
		clip := *binding.Clip
		p.Texture.Clip = &clip
	}
	return p, nil
}

func (b *Baker) readMesh(path string) (*objfile.Mesh, error) {
	if m, ok := b.meshCache[path]; ok {
		return m, nil
	}
	f, err := b.meshes.Open(path)
	if err != nil {
		return nil, &definition.LoadError{File: path, Err: err}
	}
	defer f.Close()

	m, err := objfile.Read(f, path, b.logger)
	if err != nil {
		return nil, err
	}
	b.meshCache[path] = m
	return m, nil
}

// Get devolve um arquivo já processado.
func (b *Baker) Get(key string) (*Baked, bool) {
	done, ok := b.baked[key]
	return done, ok
}

// All devolve os arquivos na ordem em que terminaram de ser processados.
func (b *Baker) All() []*Baked {
	return b.order
}
