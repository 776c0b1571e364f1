package app

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"FortressModels/shared/catalog"
	"FortressModels/shared/model"
)

// draw renderiza a cena.
func (a *App) draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(30, 30, 40, 255))

	a.drawScene()
	a.drawHUD()

	rl.EndDrawing()
}

// drawScene renderiza o voxel e a grade de referência.
func (a *App) drawScene() {
	rl.BeginMode3D(a.Cam.Camera3D())

	rl.DrawGrid(10, 1.0)
	rl.DrawCubeWires(rl.NewVector3(0, 0, 0), 1, 1, 1, rl.NewColor(100, 100, 100, 120))
	a.drawNeighbors()
	if a.renderer != nil {
		a.renderer.Draw()
	}

	rl.EndMode3D()
}

// drawNeighbors marca com um contorno os vizinhos ocupados da máscara.
func (a *App) drawNeighbors() {
	for _, d := range model.AllDirections {
		if a.Neighbors&d.Bit() == 0 {
			continue
		}
		_, _, n := d.Basis()
		rl.DrawCubeWires(rl.NewVector3(n[0], n[1], n[2]), 1, 1, 1, rl.NewColor(200, 120, 60, 160))
	}
}

// drawHUD desenha a interface sobreposta.
func (a *App) drawHUD() {
	width := int32(360)
	height := int32(200)
	x := int32(10)
	y := int32(10)

	rl.DrawRectangle(x, y, width, height, rl.NewColor(0, 0, 0, 180))
	rl.DrawRectangleLines(x, y, width, height, rl.NewColor(50, 50, 50, 255))

	rl.DrawText(fmt.Sprintf("FPS: %d", rl.GetFPS()), x+10, y+10, 20, rl.Green)
	rl.DrawLine(x+10, y+35, x+width-10, y+35, rl.NewColor(100, 100, 100, 100))

	rl.DrawText("CONSULTA", x+10, y+45, 12, rl.Gray)
	rl.DrawText(fmt.Sprintf("%s %q", a.Shape, a.Path), x+10, y+60, 16, rl.White)
	if a.resp != nil {
		kind := catalog.MatchKind(a.resp.Match)
		color := rl.Green
		switch kind {
		case catalog.Fallback:
			color = rl.Yellow
		case catalog.Missing:
			color = rl.Red
		}
		rl.DrawText(fmt.Sprintf("Modelo %d (%s)", a.resp.ModelIndex, kind), x+10, y+80, 16, color)
	}
	if a.voxel != nil {
		rl.DrawText(fmt.Sprintf("Primitivas: %d desenhadas, %d descartadas", a.voxel.Emitted, a.voxel.Culled), x+10, y+100, 14, rl.LightGray)
	}
	rl.DrawText(fmt.Sprintf("Vizinhos: %s", maskString(a.Neighbors)), x+10, y+118, 14, rl.LightGray)

	rl.DrawLine(x+10, y+140, x+width-10, y+140, rl.NewColor(100, 100, 100, 100))
	rl.DrawText("1-6: Vizinhos | R: Consultar de novo | Mouse: Girar", x+10, y+150, 12, rl.SkyBlue)
	rl.DrawText(a.status, x+10, y+170, 12, rl.Gray)

	title := "FortressModels v0.1.0"
	titleWidth := rl.MeasureText(title, 18)
	rl.DrawText(title,
		int32(rl.GetScreenWidth())-titleWidth-20, int32(rl.GetScreenHeight())-30,
		18, rl.NewColor(200, 200, 200, 150))
}
