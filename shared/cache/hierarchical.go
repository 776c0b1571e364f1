// Package cache implementa um cache hierárquico baseado em trie, com
// fallback para o ancestral mais próximo e memoização preguiçosa.
//
// O Cache NÃO é seguro para escrita concorrente: quem usa
// GetOrInitializeWithParent a partir de várias goroutines precisa serializar
// as chamadas (ver catalog.Catalog).
package cache

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrNoFallback é retornado quando a inicialização preguiçosa é pedida sem
// um valor padrão global configurado.
var ErrNoFallback = errors.New("cache: inicialização preguiçosa exige um valor padrão")

// Key é qualquer chave composta por segmentos ordenados (ex: ident.Path).
// O pai de uma chave é a mesma sequência sem o último segmento.
type Key interface {
	Len() int
	Segment(i int) string
}

// entry é um nó da trie. Sem filhos ele é uma folha; ao inserir além da
// profundidade atual ele vira galho e o valor antigo passa a ser o padrão
// daquele galho (mesmo campo value).
type entry[V any] struct {
	value    V
	present  bool
	children map[string]*entry[V]
}

func (e *entry[V]) isBranch() bool {
	return e.children != nil
}

func (e *entry[V]) child(segment string) *entry[V] {
	if e.children == nil {
		return nil
	}
	return e.children[segment]
}

// grow garante o filho, convertendo folha em galho quando necessário.
func (e *entry[V]) grow(segment string) *entry[V] {
	if e.children == nil {
		e.children = make(map[string]*entry[V])
	}
	c, ok := e.children[segment]
	if !ok {
		c = &entry[V]{}
		e.children[segment] = c
	}
	return c
}

// Cache mapeia chaves hierárquicas para valores.
type Cache[K Key, V any] struct {
	root        entry[V]
	fallback    V
	hasFallback bool
	count       int
}

// New cria um cache sem valor padrão.
func New[K Key, V any]() *Cache[K, V] {
	return &Cache[K, V]{}
}

// NewWithDefault cria um cache com o valor padrão global já configurado.
func NewWithDefault[K Key, V any](fallback V) *Cache[K, V] {
	return &Cache[K, V]{fallback: fallback, hasFallback: true}
}

// find desce pela trie sem criar nós. Retorna nil se o caminho não existir.
func (c *Cache[K, V]) find(key K) *entry[V] {
	node := &c.root
	for i := 0; i < key.Len(); i++ {
		node = node.child(key.Segment(i))
		if node == nil {
			return nil
		}
	}
	return node
}

// Get busca apenas a chave exata. Nunca altera o cache.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	if node := c.find(key); node != nil && node.present {
		return node.value, true
	}
	var zero V
	return zero, false
}

// GetRecursive retorna o valor da chave ou do ancestral presente mais
// próximo (incluindo a raiz). Sem nenhum, retorna o padrão global, se houver.
func (c *Cache[K, V]) GetRecursive(key K) (V, bool) {
	var (
		best  V
		found bool
	)

	node := &c.root
	if node.present {
		best, found = node.value, true
	}
	for i := 0; i < key.Len(); i++ {
		node = node.child(key.Segment(i))
		if node == nil {
			break
		}
		if node.present {
			best, found = node.value, true
		}
	}

	if found {
		return best, true
	}
	if c.hasFallback {
		return c.fallback, true
	}
	var zero V
	return zero, false
}

// GetOrInitializeWithParent retorna (valor, true) se a chave exata já
// existia. Caso contrário resolve via GetRecursive, memoiza o resultado na
// chave e retorna (valor, false). Exige um padrão global configurado.
func (c *Cache[K, V]) GetOrInitializeWithParent(key K) (V, bool, error) {
	var zero V
	if !c.hasFallback {
		return zero, false, ErrNoFallback
	}

	if v, ok := c.Get(key); ok {
		return v, true, nil
	}

	inherited, ok := c.GetRecursive(key)
	if !ok {
		// Impossível com fallback configurado.
		return zero, false, fmt.Errorf("cache: resolução falhou para chave de %d segmentos", key.Len())
	}
	c.Set(key, inherited)
	return inherited, false, nil
}

// Set insere ou sobrescreve a chave exata.
//
// Não invalida descendentes já memoizados: a fase de carga faz todos os Set
// antes de qualquer GetOrInitializeWithParent.
func (c *Cache[K, V]) Set(key K, value V) {
	node := &c.root
	for i := 0; i < key.Len(); i++ {
		node = node.grow(key.Segment(i))
	}
	if !node.present {
		c.count++
	}
	node.value = value
	node.present = true
}

// SetDefault troca o valor padrão global, retornando o anterior.
func (c *Cache[K, V]) SetDefault(value V) (V, bool) {
	prev, had := c.fallback, c.hasFallback
	c.fallback = value
	c.hasFallback = true
	return prev, had
}

// Default retorna o valor padrão global.
func (c *Cache[K, V]) Default() (V, bool) {
	return c.fallback, c.hasFallback
}

// Len retorna quantas chaves exatas têm valor.
func (c *Cache[K, V]) Len() int {
	return c.count
}

// Walk visita todas as chaves presentes em ordem de segmentos.
func (c *Cache[K, V]) Walk(fn func(segments []string, value V)) {
	walk(&c.root, nil, fn)
}

func walk[V any](node *entry[V], prefix []string, fn func([]string, V)) {
	if node.present {
		key := make([]string, len(prefix))
		copy(key, prefix)
		fn(key, node.value)
	}
	if !node.isBranch() {
		return
	}
	names := make([]string, 0, len(node.children))
	for name := range node.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		walk(node.children[name], append(prefix, name), fn)
	}
}

// Print escreve a árvore indentada (útil para depuração de catálogos).
func (c *Cache[K, V]) Print(w io.Writer) {
	if c.hasFallback {
		fmt.Fprintf(w, "__default__: %v\n", c.fallback)
	}
	c.Walk(func(segments []string, value V) {
		if len(segments) == 0 {
			fmt.Fprintf(w, "<raiz>: %v\n", value)
			return
		}
		indent := strings.Repeat("    ", len(segments)-1)
		fmt.Fprintf(w, "%s%s: %v\n", indent, segments[len(segments)-1], value)
	})
}
