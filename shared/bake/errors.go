package bake

import (
	"fmt"
	"strings"
)

// UnresolvedVariableError indica uma diretiva (ou cadeia #) que referencia
// uma variável não declarada.
type UnresolvedVariableError struct {
	File    string
	Binding string
}

func (e *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("%s: variável não resolvida %q", e.File, e.Binding)
}

// CyclicIndirectionError indica uma cadeia de variáveis que volta a um nome já visitado.
type CyclicIndirectionError struct {
	File  string
	Chain []string
}

func (e *CyclicIndirectionError) Error() string {
	return fmt.Sprintf("%s: indireção cíclica: %s", e.File, strings.Join(e.Chain, " -> "))
}

// MissingInheritedFileError indica um inherit para um arquivo inexistente.
type MissingInheritedFileError struct {
	File   string
	Target string
}

func (e *MissingInheritedFileError) Error() string {
	return fmt.Sprintf("%s: arquivo herdado não encontrado %q", e.File, e.Target)
}

// CyclicInheritanceError indica arquivos que herdam uns dos outros em ciclo.
type CyclicInheritanceError struct {
	Chain []string
}

func (e *CyclicInheritanceError) Error() string {
	return "herança cíclica: " + strings.Join(e.Chain, " -> ")
}
