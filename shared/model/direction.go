package model

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Direction representa uma das seis faces de um voxel.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
	Forward
	Backwards
)

// AllDirections lista as seis direções na ordem dos bits da máscara.
var AllDirections = [6]Direction{Up, Down, Left, Right, Forward, Backwards}

var directionNames = [6]string{"up", "down", "left", "right", "forward", "backwards"}

// String retorna o nome usado nos arquivos de definição.
func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", d)
}

// Bit retorna o bit desta direção na máscara de vizinhos ocupados (6 bits).
func (d Direction) Bit() uint8 {
	return 1 << d
}

// ParseDirection converte "up", "Down", etc.
func ParseDirection(s string) (Direction, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range directionNames {
		if n == name {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("direção inválida %q", s)
}

// Basis retorna os eixos (largura, altura, normal) de uma face.
// Y é "cima" no espaço 3D, como no resto do visualizador, e
// largura × altura = normal (winding anti-horário visto de fora).
func (d Direction) Basis() (width, height, normal mgl32.Vec3) {
	switch d {
	case Up:
		return mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}
	case Down:
		return mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0}
	case Left:
		return mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{-1, 0, 0}
	case Right:
		return mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}
	case Forward:
		return mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}
	default:
		return mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, -1}
	}
}

// CullKind diz quando uma primitiva deixa de ser desenhada.
type CullKind uint8

const (
	CullNever CullKind = iota
	// CullWhenVisible descarta a primitiva quando o vizinho na direção está vazio.
	CullWhenVisible
	// CullWhenHidden descarta a primitiva quando o vizinho na direção está ocupado.
	CullWhenHidden
)

// CullRule combina o tipo de descarte com a direção observada.
type CullRule struct {
	Kind      CullKind
	Direction Direction
}

// Never é a regra padrão.
var Never = CullRule{Kind: CullNever}

// WhenVisible cria a regra correspondente.
func WhenVisible(d Direction) CullRule { return CullRule{Kind: CullWhenVisible, Direction: d} }

// WhenHidden cria a regra correspondente.
func WhenHidden(d Direction) CullRule { return CullRule{Kind: CullWhenHidden, Direction: d} }

// Culled avalia a regra contra a máscara de vizinhos ocupados.
func (c CullRule) Culled(neighbors uint8) bool {
	occupied := neighbors&c.Direction.Bit() != 0
	switch c.Kind {
	case CullWhenVisible:
		return !occupied
	case CullWhenHidden:
		return occupied
	}
	return false
}

// String retorna a forma textual ("never", "hidden:up", ...).
func (c CullRule) String() string {
	switch c.Kind {
	case CullWhenVisible:
		return "visible:" + c.Direction.String()
	case CullWhenHidden:
		return "hidden:" + c.Direction.String()
	}
	return "never"
}

// ParseCullRule aceita "never", "visible:<dir>" e "hidden:<dir>".
func ParseCullRule(s string) (CullRule, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "never" {
		return Never, nil
	}
	kind, dir, ok := strings.Cut(s, ":")
	if !ok {
		return Never, fmt.Errorf("regra de culling inválida %q", s)
	}
	d, err := ParseDirection(dir)
	if err != nil {
		return Never, fmt.Errorf("regra de culling %q: %w", s, err)
	}
	switch kind {
	case "visible":
		return WhenVisible(d), nil
	case "hidden":
		return WhenHidden(d), nil
	}
	return Never, fmt.Errorf("regra de culling inválida %q", s)
}
