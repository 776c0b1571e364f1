// Package ident define o identificador hierárquico de materiais usado como
// chave em todos os catálogos de modelos.
//
// Formato em runtime: "INORGANIC:GRANITE:STRUCTURAL" (separado por ':' e
// sempre em maiúsculas).
package ident

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Separator separa os segmentos na forma textual.
const Separator = ":"

// Ignorable é o segmento que, quando não encontrado na última posição,
// é tratado como ausente em vez de gerar um "modelo faltando".
const Ignorable = "STRUCTURAL"

// Path é uma sequência imutável de segmentos em maiúsculas.
// O valor zero é a raiz (caminho vazio).
type Path struct {
	segs []string
}

// Root retorna o caminho vazio.
func Root() Path {
	return Path{}
}

// Parse converte "a:b:c" em um Path. String vazia vira a raiz.
// Segmentos vazios ("a::b", "a:") são descartados.
func Parse(s string) Path {
	segs := slices.DeleteFunc(strings.Split(s, Separator), func(seg string) bool {
		return seg == ""
	})
	return New(segs...)
}

// New cria um Path a partir de segmentos explícitos.
func New(segments ...string) Path {
	if len(segments) == 0 {
		return Path{}
	}
	upper := cases.Upper(language.Und)
	segs := make([]string, len(segments))
	for i, s := range segments {
		segs[i] = upper.String(s)
	}
	return Path{segs: segs}
}

// Fold normaliza um segmento avulso para a forma usada nas chaves.
func Fold(segment string) string {
	return cases.Upper(language.Und).String(segment)
}

// Len retorna o número de segmentos.
func (p Path) Len() int {
	return len(p.segs)
}

// IsRoot indica se o caminho é vazio.
func (p Path) IsRoot() bool {
	return len(p.segs) == 0
}

// Segment retorna o i-ésimo segmento.
func (p Path) Segment(i int) string {
	return p.segs[i]
}

// Segments retorna uma cópia dos segmentos.
func (p Path) Segments() []string {
	out := make([]string, len(p.segs))
	copy(out, p.segs)
	return out
}

// Last retorna o último segmento, se houver.
func (p Path) Last() (string, bool) {
	if len(p.segs) == 0 {
		return "", false
	}
	return p.segs[len(p.segs)-1], true
}

// Parent remove o último segmento. A raiz não tem pai.
func (p Path) Parent() (Path, bool) {
	if len(p.segs) == 0 {
		return Path{}, false
	}
	// Slicing mantém o array compartilhado; seguro porque nunca escrevemos nele.
	return Path{segs: p.segs[:len(p.segs)-1:len(p.segs)-1]}, true
}

// IsChildOf vale sse p.Parent() == other.
func (p Path) IsChildOf(other Path) bool {
	parent, ok := p.Parent()
	return ok && parent.Equal(other)
}

// Child retorna um novo caminho com um segmento a mais.
func (p Path) Child(segment string) Path {
	segs := make([]string, len(p.segs)+1)
	copy(segs, p.segs)
	segs[len(p.segs)] = Fold(segment)
	return Path{segs: segs}
}

// Equal compara segmento a segmento.
func (p Path) Equal(other Path) bool {
	if len(p.segs) != len(other.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i] != other.segs[i] {
			return false
		}
	}
	return true
}

// Compare ordena lexicograficamente por segmento; um prefixo vem antes
// do caminho mais longo que o contém.
func (p Path) Compare(other Path) int {
	n := min(len(p.segs), len(other.segs))
	for i := 0; i < n; i++ {
		if c := strings.Compare(p.segs[i], other.segs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p.segs) < len(other.segs):
		return -1
	case len(p.segs) > len(other.segs):
		return 1
	}
	return 0
}

// TrailingIgnorable indica se o último segmento é o marcador ignorável.
func (p Path) TrailingIgnorable() bool {
	last, ok := p.Last()
	return ok && IsIgnorable(last)
}

// IsIgnorable indica se um segmento pode ser pulado numa busca sem erro.
func IsIgnorable(segment string) bool {
	return segment == Ignorable
}

// String retorna a forma "A:B:C".
func (p Path) String() string {
	return strings.Join(p.segs, Separator)
}
