package app

import (
	"context"
	"fmt"
	"image"
	"log"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"FortressModels/cliente/internal/camera"
	"FortressModels/cliente/internal/client"
	"FortressModels/cliente/internal/meshing"
	"FortressModels/cliente/internal/render"
	"FortressModels/shared/catalog"
	"FortressModels/shared/config"
	"FortressModels/shared/model"
	"FortressModels/shared/proto/query"
)

// App é a janela de preview de um voxel resolvido pelo servidor.
type App struct {
	Config *config.Config

	Shape     catalog.Shape
	Path      string
	Neighbors uint8 // máscara de vizinhos ocupados

	Cam       *camera.Orbit
	netClient *client.NetworkClient
	renderer  *render.Renderer

	resp   *query.ResolveResponse
	model  *model.CompiledModel
	voxel  *meshing.Result
	pages  []image.Image
	status string
}

// New cria a aplicação para a consulta (shape, path).
func New(cfg *config.Config, shape catalog.Shape, path string, neighbors uint8) *App {
	return &App{
		Config:    cfg,
		Shape:     shape,
		Path:      path,
		Neighbors: neighbors,
		status:    "Conectando...",
	}
}

// Run conecta, resolve o modelo, abre a janela e roda o loop até ela fechar.
func (a *App) Run(ctx context.Context) error {
	if err := a.connectServer(ctx); err != nil {
		return err
	}
	defer a.netClient.Close()

	if err := a.resolveModel(ctx); err != nil {
		return err
	}
	pages, err := fetchPages(ctx, a.Config.ServerURL, usedPages(a.model))
	if err != nil {
		return err
	}
	a.pages = pages

	rl.SetConfigFlags(rl.FlagMsaa4xHint | rl.FlagWindowResizable)
	rl.InitWindow(a.Config.WindowWidth, a.Config.WindowHeight, a.Config.WindowTitle)
	defer rl.CloseWindow()
	rl.SetTraceLogLevel(rl.LogWarning) // Reduz ruído no terminal
	rl.SetTargetFPS(a.Config.TargetFPS)

	a.Cam = camera.New(mgl32.Vec3{0, 0, 0})
	a.renderer = render.NewRenderer()
	defer a.renderer.Unload()
	a.renderer.LoadPages(a.pages)

	if err := a.remesh(); err != nil {
		return err
	}
	log.Println("[FortressModels] Janela inicializada com sucesso")

	for !rl.WindowShouldClose() {
		if err := a.handleInput(ctx); err != nil {
			log.Printf("[App] %v", err)
			a.status = err.Error()
		}
		a.draw()
	}
	return nil
}

// remesh recalcula o voxel contra a máscara atual e envia para a GPU.
func (a *App) remesh() error {
	res, err := meshing.BuildVoxel(a.model, a.Neighbors, mgl32.Vec3{}, meshing.White)
	if err != nil {
		return fmt.Errorf("falha ao gerar malha: %w", err)
	}
	a.voxel = res
	a.renderer.UploadVoxel(res)
	return nil
}
