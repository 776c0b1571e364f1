package catalog

import (
	"fmt"
	"io"
	"log"

	"FortressModels/shared/ident"
	"FortressModels/shared/model"
)

// Registry agrupa um catálogo por classe de forma.
type Registry struct {
	catalogs map[Shape]*Catalog
}

// NewRegistry cria um catálogo vazio para cada classe válida.
func NewRegistry(logger *log.Logger) *Registry {
	r := &Registry{catalogs: make(map[Shape]*Catalog)}
	for _, s := range AllShapes() {
		r.catalogs[s] = New(s, logger)
	}
	return r
}

// Catalog retorna o catálogo da classe, ou nil se a classe não for válida.
func (r *Registry) Catalog(shape Shape) *Catalog {
	return r.catalogs[shape]
}

// Resolve é a consulta usada pelo mesher e pelo servidor: memoiza e
// classifica a resolução de id dentro da classe shape.
func (r *Registry) Resolve(shape Shape, id ident.Path) (*model.CompiledModel, MatchKind, error) {
	c := r.catalogs[shape]
	if c == nil {
		return nil, Missing, fmt.Errorf("classe de forma inválida %d", int32(shape))
	}
	m, k := c.ModelAndCache(id)
	return m, k, nil
}

// ResolveString aceita o identificador na forma textual ("INORGANIC:GRANITE").
func (r *Registry) ResolveString(shape Shape, id string) (*model.CompiledModel, MatchKind, error) {
	return r.Resolve(shape, ident.Parse(id))
}

// Len retorna o total de modelos em todos os catálogos.
func (r *Registry) Len() int {
	n := 0
	for _, c := range r.catalogs {
		n += c.Len()
	}
	return n
}

// PrintTree escreve as árvores de todas as classes que têm modelos.
func (r *Registry) PrintTree(w io.Writer) {
	for _, s := range AllShapes() {
		if c := r.catalogs[s]; c.Len() > 0 {
			c.PrintTree(w)
		}
	}
}
