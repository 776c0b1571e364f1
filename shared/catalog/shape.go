package catalog

import (
	"fmt"
	"strings"
)

// Shape é a classe de forma de um tile. Os valores seguem o enum de
// formas da simulação; cada classe tem o seu próprio catálogo.
type Shape int32

const (
	ShapeNoShape       Shape = 0
	ShapeFloor         Shape = 1
	ShapeBoulder       Shape = 2
	ShapePebbles       Shape = 3
	ShapeWall          Shape = 4
	ShapeFortification Shape = 5
	ShapeStairUp       Shape = 6
	ShapeStairDown     Shape = 7
	ShapeStairUpDown   Shape = 8
	ShapeRamp          Shape = 9
	ShapeRampTop       Shape = 10
	ShapeBrookBed      Shape = 11
	ShapeBrookTop      Shape = 12
	ShapeTree          Shape = 13
	ShapeSapling       Shape = 14
	ShapeShrub         Shape = 15
	ShapeEmpty         Shape = 16
	ShapeEndlessPit    Shape = 17
	ShapeBranch        Shape = 18
	ShapeTrunkBranch   Shape = 19
	ShapeTwig          Shape = 20
)

// shapeDirs mapeia cada classe para o diretório raiz das suas definições.
var shapeDirs = [...]string{
	ShapeFloor:         "floor",
	ShapeBoulder:       "boulder",
	ShapePebbles:       "pebbles",
	ShapeWall:          "wall",
	ShapeFortification: "fortification",
	ShapeStairUp:       "stair_up",
	ShapeStairDown:     "stair_down",
	ShapeStairUpDown:   "stair_up_down",
	ShapeRamp:          "ramp",
	ShapeRampTop:       "ramp_top",
	ShapeBrookBed:      "brook_bed",
	ShapeBrookTop:      "brook_top",
	ShapeTree:          "tree",
	ShapeSapling:       "sapling",
	ShapeShrub:         "shrub",
	ShapeEmpty:         "empty",
	ShapeEndlessPit:    "endless_pit",
	ShapeBranch:        "branch",
	ShapeTrunkBranch:   "trunk_branch",
	ShapeTwig:          "twig",
}

// AllShapes lista as classes válidas em ordem.
func AllShapes() []Shape {
	out := make([]Shape, 0, len(shapeDirs)-1)
	for s := ShapeFloor; s <= ShapeTwig; s++ {
		out = append(out, s)
	}
	return out
}

// Valid informa se s tem catálogo.
func (s Shape) Valid() bool {
	return s >= ShapeFloor && s <= ShapeTwig
}

// Dir retorna o diretório da classe ("wall", "stair_up"...).
func (s Shape) Dir() string {
	if !s.Valid() {
		return ""
	}
	return shapeDirs[s]
}

func (s Shape) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Shape(%d)", int32(s))
	}
	return shapeDirs[s]
}

// ParseShape aceita o nome do diretório, sem diferenciar maiúsculas.
func ParseShape(name string) (Shape, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range AllShapes() {
		if shapeDirs[s] == name {
			return s, nil
		}
	}
	return ShapeNoShape, fmt.Errorf("classe de forma desconhecida %q", name)
}
