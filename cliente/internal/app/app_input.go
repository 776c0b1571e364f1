package app

import (
	"context"
	"strings"

	rl "github.com/gen2brain/raylib-go/raylib"

	"FortressModels/shared/model"
)

// neighborKeys liga as teclas 1-6 às direções, na ordem dos bits da máscara.
var neighborKeys = [6]int32{rl.KeyOne, rl.KeyTwo, rl.KeyThree, rl.KeyFour, rl.KeyFive, rl.KeySix}

// handleInput processa câmera e teclado. Alterar a máscara refaz a malha.
func (a *App) handleInput(ctx context.Context) error {
	a.Cam.HandleInput()

	changed := false
	for i, key := range neighborKeys {
		if rl.IsKeyPressed(key) {
			a.Neighbors = toggleNeighbor(a.Neighbors, model.AllDirections[i])
			changed = true
		}
	}

	if rl.IsKeyPressed(rl.KeyR) {
		if err := a.resolveModel(ctx); err != nil {
			return err
		}
		changed = true
	}

	if changed {
		return a.remesh()
	}
	return nil
}

func toggleNeighbor(mask uint8, d model.Direction) uint8 {
	return mask ^ d.Bit()
}

// maskString lista as direções ocupadas ("up,left") ou "-".
func maskString(mask uint8) string {
	var names []string
	for _, d := range model.AllDirections {
		if mask&d.Bit() != 0 {
			names = append(names, d.String())
		}
	}
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}

// ParseMask converte "up,left" na máscara de vizinhos.
func ParseMask(s string) (uint8, error) {
	var mask uint8
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := model.ParseDirection(part)
		if err != nil {
			return 0, err
		}
		mask |= d.Bit()
	}
	return mask, nil
}
