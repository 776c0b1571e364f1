// Package catalog publica os modelos compilados por classe de forma e
// resolve identificadores de material em tempo de consulta.
package catalog

import (
	"fmt"
	"io"
	"log"
	"sync"

	"FortressModels/shared/cache"
	"FortressModels/shared/ident"
	"FortressModels/shared/model"
)

// MatchKind descreve como uma consulta foi resolvida.
type MatchKind uint8

const (
	// Exact: o identificador tem um modelo declarado.
	Exact MatchKind = iota
	// Fallback: resolvido por um ancestral porque o último segmento é ignorável.
	Fallback
	// Missing: nenhum modelo declarado para o identificador. Um modelo de
	// ancestral ou padrão ainda pode ser devolvido.
	Missing
)

func (k MatchKind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Fallback:
		return "fallback"
	}
	return "missing"
}

// Binding é o valor guardado no cache. Index 0 significa "sem modelo".
// Authored distingue ligações da carga das cópias memoizadas nas consultas.
type Binding struct {
	Index    uint32
	Authored bool
}

func (b Binding) String() string {
	if b.Authored || b.Index == 0 {
		return fmt.Sprintf("%d", b.Index)
	}
	return fmt.Sprintf("%d (memo)", b.Index)
}

// Catalog é o catálogo de uma classe de forma.
//
// As consultas que memoizam (ModelAndCache) são serializadas por um mutex;
// o cache em si não é seguro para escrita concorrente.
type Catalog struct {
	shape  Shape
	logger *log.Logger

	mu     sync.Mutex
	models []*model.CompiledModel
	ids    *cache.Cache[ident.Path, Binding]
}

// New cria um catálogo vazio. O padrão global começa como "sem modelo".
func New(shape Shape, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.Default()
	}
	return &Catalog{
		shape:  shape,
		logger: logger,
		// models[0] é reservado
		models: []*model.CompiledModel{nil},
		ids:    cache.NewWithDefault[ident.Path](Binding{}),
	}
}

// Shape retorna a classe do catálogo.
func (c *Catalog) Shape() Shape { return c.shape }

// AddModel publica m e liga path ao novo índice (base 1).
// O caminho raiz vira o padrão global do catálogo.
func (c *Catalog) AddModel(path ident.Path, m *model.CompiledModel) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.models = append(c.models, m)
	idx := uint32(len(c.models) - 1)
	c.bind(path, Binding{Index: idx, Authored: true})
	return idx
}

// Bind liga path a um índice já publicado (usado ao recarregar do banco).
func (c *Catalog) Bind(path ident.Path, index uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index == 0 || int(index) >= len(c.models) {
		return fmt.Errorf("índice de modelo inválido %d (catálogo %s tem %d)", index, c.shape, len(c.models)-1)
	}
	c.bind(path, Binding{Index: index, Authored: true})
	return nil
}

// Append publica m sem ligá-lo a nenhum caminho.
func (c *Catalog) Append(m *model.CompiledModel) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = append(c.models, m)
	return uint32(len(c.models) - 1)
}

func (c *Catalog) bind(path ident.Path, b Binding) {
	if path.IsRoot() {
		c.ids.SetDefault(b)
		return
	}
	c.ids.Set(path, b)
}

// Len retorna o número de modelos publicados.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.models) - 1
}

// At retorna o modelo de índice idx (nil para 0 ou fora do intervalo).
func (c *Catalog) At(idx uint32) *model.CompiledModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at(idx)
}

func (c *Catalog) at(idx uint32) *model.CompiledModel {
	if idx == 0 || int(idx) >= len(c.models) {
		return nil
	}
	return c.models[idx]
}

// kind classifica uma resolução que não veio de uma ligação exata.
func kind(path ident.Path, b Binding) MatchKind {
	if b.Index != 0 && path.TrailingIgnorable() {
		return Fallback
	}
	return Missing
}

// rootLookup trata o caminho vazio, que mora no padrão global.
func (c *Catalog) rootLookup() (Binding, MatchKind) {
	b, _ := c.ids.Default()
	if b.Authored && b.Index != 0 {
		return b, Exact
	}
	return b, Missing
}

// lookup resolve sem memoizar.
func (c *Catalog) lookup(path ident.Path) (Binding, MatchKind) {
	if path.IsRoot() {
		return c.rootLookup()
	}
	if b, ok := c.ids.Get(path); ok && b.Authored {
		return b, Exact
	}
	b, _ := c.ids.GetRecursive(path)
	return b, kind(path, b)
}

// ModelID resolve o índice do modelo. ok é false quando a consulta seria
// reportada como Missing.
func (c *Catalog) ModelID(path ident.Path) (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, k := c.lookup(path)
	return b.Index, k != Missing
}

// Model resolve sem alterar o cache.
func (c *Catalog) Model(path ident.Path) (*model.CompiledModel, MatchKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, k := c.lookup(path)
	return c.at(b.Index), k
}

// ModelAndCache resolve e memoiza o resultado na chave consultada, para que
// as próximas consultas sejam exatas na trie. O aviso de modelo faltando
// só é emitido na primeira resolução de cada chave.
func (c *Catalog) ModelAndCache(path ident.Path) (*model.CompiledModel, MatchKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if path.IsRoot() {
		b, k := c.rootLookup()
		return c.at(b.Index), k
	}

	b, existed, err := c.ids.GetOrInitializeWithParent(path)
	if err != nil {
		// O padrão é configurado em New; só acontece com catálogo corrompido.
		c.logger.Printf("[Catalog] %s: %v", c.shape, err)
		return nil, Missing
	}
	if existed && b.Authored {
		return c.at(b.Index), Exact
	}
	if !existed {
		b.Authored = false
		c.ids.Set(path, b)
	}

	k := kind(path, b)
	// Falta com último segmento ignorável é silenciosa.
	if k == Missing && !existed && !path.TrailingIgnorable() {
		c.logger.Printf("[Catalog] AVISO: modelo faltando %s %s (usando %d)", c.shape, path, b.Index)
	}
	return c.at(b.Index), k
}

// Bindings visita as ligações declaradas na carga (não as memoizadas).
// O caminho raiz representa o padrão global.
func (c *Catalog) Bindings(fn func(path ident.Path, index uint32)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, _ := c.ids.Default(); b.Authored {
		fn(ident.Root(), b.Index)
	}
	c.ids.Walk(func(segments []string, b Binding) {
		if b.Authored {
			fn(ident.New(segments...), b.Index)
		}
	})
}

// Models retorna os modelos publicados em ordem de índice (começando em 1).
func (c *Catalog) Models() []*model.CompiledModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*model.CompiledModel(nil), c.models[1:]...)
}

// PrintTree escreve a árvore de ligações do catálogo.
func (c *Catalog) PrintTree(w io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(w, "== %s (%d modelos) ==\n", c.shape, len(c.models)-1)
	c.ids.Print(w)
}
