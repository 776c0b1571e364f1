package bake

import "strings"

// IndirectionMarker prefixa expressões que apontam para outra variável.
const IndirectionMarker = "#"

// Variable é uma entrada da tabela. Own distingue declarações do próprio
// arquivo das herdadas via inherit.
type Variable struct {
	Name string
	Expr string
	Own  bool
}

// VariableTable é a tabela ordenada de um arquivo. As primitivas guardam a
// posição, então entradas nunca mudam de lugar nem são removidas.
type VariableTable struct {
	vars  []Variable
	index map[string]int
}

// NewVariableTable cria uma tabela vazia.
func NewVariableTable() *VariableTable {
	return &VariableTable{index: make(map[string]int)}
}

func (t *VariableTable) Len() int { return len(t.vars) }

// At retorna a variável na posição i.
func (t *VariableTable) At(i int) Variable { return t.vars[i] }

// Lookup retorna a posição de name.
func (t *VariableTable) Lookup(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

func (t *VariableTable) push(v Variable) int {
	t.vars = append(t.vars, v)
	t.index[v.Name] = len(t.vars) - 1
	return len(t.vars) - 1
}

// Declare registra uma variável do próprio arquivo.
//
// Regra de precedência: a primeira declaração própria vence e repetições
// são descartadas. Uma declaração própria sempre vence uma herdada, mesmo
// quando o inherit veio antes no arquivo; nesse caso a expressão é trocada
// na mesma posição. Retorna false quando a declaração foi descartada.
func (t *VariableTable) Declare(name, expr string) bool {
	i, ok := t.index[name]
	if !ok {
		t.push(Variable{Name: name, Expr: expr, Own: true})
		return true
	}
	if t.vars[i].Own {
		return false
	}
	t.vars[i] = Variable{Name: name, Expr: expr, Own: true}
	return true
}

// Merge traz as variáveis do pai que ainda não existem aqui, na ordem do pai.
func (t *VariableTable) Merge(parent *VariableTable) {
	for _, v := range parent.vars {
		if _, ok := t.index[v.Name]; ok {
			continue
		}
		t.push(Variable{Name: v.Name, Expr: v.Expr})
	}
}

// Resolve segue a cadeia "#nome" a partir da posição i até um literal.
// file só é usado nas mensagens de erro.
func (t *VariableTable) Resolve(file string, i int) (string, error) {
	v := t.vars[i]
	visited := map[string]bool{v.Name: true}
	chain := []string{v.Name}

	expr := v.Expr
	for strings.HasPrefix(expr, IndirectionMarker) {
		next := strings.TrimPrefix(expr, IndirectionMarker)
		if visited[next] {
			return "", &CyclicIndirectionError{File: file, Chain: append(chain, next)}
		}
		j, ok := t.index[next]
		if !ok {
			return "", &UnresolvedVariableError{File: file, Binding: next}
		}
		visited[next] = true
		chain = append(chain, next)
		expr = t.vars[j].Expr
	}
	return expr, nil
}
