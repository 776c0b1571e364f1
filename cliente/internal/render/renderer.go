package render

/*
#include <stdlib.h>
*/
import "C"

import (
	"image"
	"log"
	"sync"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"FortressModels/cliente/internal/meshing"
)

// Renderer mantém as páginas do atlas na GPU e os modelos do voxel em preview.
type Renderer struct {
	mu sync.RWMutex

	Shader rl.Shader
	// Texturas das páginas do atlas, indexadas pelo número da página
	Pages map[int]rl.Texture2D
	// Um modelo por página usada pelo voxel atual
	Models      map[int]rl.Model
	Transparent bool
}

// NewRenderer cria um renderizador. Requer janela aberta para carregar o shader.
func NewRenderer() *Renderer {
	r := &Renderer{
		Pages:  make(map[int]rl.Texture2D),
		Models: make(map[int]rl.Model),
	}
	if rl.IsWindowReady() {
		r.Shader = rl.LoadShaderFromMemory(voxelVertexShader, voxelFragmentShader)
		// Locs aponta para um array em C; registramos os uniforms padrão para o raylib preencher
		locs := unsafe.Slice(r.Shader.Locs, 32)
		locs[0] = rl.GetShaderLocation(r.Shader, "texture0")    // SHADER_LOC_MAP_DIFFUSE
		locs[12] = rl.GetShaderLocation(r.Shader, "colDiffuse") // SHADER_LOC_COLOR_DIFFUSE
	}
	return r
}

// LoadPages envia as páginas do atlas para a GPU.
func (r *Renderer) LoadPages(pages []image.Image) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, page := range pages {
		if page == nil {
			continue
		}
		img := rl.NewImageFromImage(page)
		tex := rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		if tex.ID == 0 {
			log.Printf("[Renderer] FALHA ao carregar página %d do atlas", i)
			continue
		}
		// Sem mipmaps: o atlas mistura texturas vizinhas nos níveis menores
		rl.SetTextureFilter(tex, rl.FilterPoint)
		if old, ok := r.Pages[i]; ok {
			rl.UnloadTexture(old)
		}
		r.Pages[i] = tex
		log.Printf("[Renderer] Página %d do atlas carregada (%dx%d)", i, tex.Width, tex.Height)
	}
}

// UploadVoxel substitui o modelo em exibição pela geometria do voxel.
func (r *Renderer) UploadVoxel(res *meshing.Result) {
	if !rl.IsWindowReady() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.unloadModels()
	r.Transparent = res.Transparent

	for _, page := range res.PageOrder() {
		geo := res.Pages[page]
		if geo.VertexCount() == 0 {
			continue
		}
		mesh := geometryToMesh(geo)
		rl.UploadMesh(&mesh, false)
		model := rl.LoadModelFromMesh(mesh)
		if model.MaterialCount > 0 {
			materials := unsafe.Slice(model.Materials, model.MaterialCount)
			if r.Shader.ID != 0 {
				materials[0].Shader = r.Shader
			}
			if tex, ok := r.Pages[page]; ok {
				rl.SetMaterialTexture(&materials[0], rl.MapDiffuse, tex)
			} else {
				log.Printf("[Renderer] AVISO: página %d não carregada", page)
			}
		}
		r.Models[page] = model
	}
	log.Printf("[Renderer] Voxel enviado: %d primitivas, %d descartadas, %d páginas", res.Emitted, res.Culled, len(r.Models))
}

// Draw desenha o voxel atual. Deve ser chamado dentro de BeginMode3D.
func (r *Renderer) Draw() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.Transparent {
		rl.BeginBlendMode(rl.BlendAlpha)
		defer rl.EndBlendMode()
	}
	for _, model := range r.Models {
		rl.DrawModel(model, rl.NewVector3(0, 0, 0), 1.0, rl.White)
	}
}

func (r *Renderer) unloadModels() {
	for page, model := range r.Models {
		rl.UnloadModel(model)
		delete(r.Models, page)
	}
}

// Unload libera modelos, texturas e shader.
func (r *Renderer) Unload() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.unloadModels()
	for page, tex := range r.Pages {
		rl.UnloadTexture(tex)
		delete(r.Pages, page)
	}
	if r.Shader.ID != 0 {
		rl.UnloadShader(r.Shader)
	}
}

// geometryToMesh copia os buffers para memória C; o raylib libera tudo em UnloadModel.
func geometryToMesh(data meshing.GeometryData) rl.Mesh {
	var mesh rl.Mesh
	mesh.VertexCount = int32(data.VertexCount())
	if len(data.Indices) > 0 {
		mesh.TriangleCount = int32(len(data.Indices) / 3)
	} else {
		mesh.TriangleCount = mesh.VertexCount / 3
	}

	if len(data.Vertices) > 0 {
		mesh.Vertices = (*float32)(copyToC(unsafe.Pointer(&data.Vertices[0]), len(data.Vertices)*4))
	}
	if len(data.Normals) > 0 {
		mesh.Normals = (*float32)(copyToC(unsafe.Pointer(&data.Normals[0]), len(data.Normals)*4))
	}
	if len(data.Colors) > 0 {
		mesh.Colors = (*uint8)(copyToC(unsafe.Pointer(&data.Colors[0]), len(data.Colors)))
	}
	if len(data.UVs) > 0 {
		mesh.Texcoords = (*float32)(copyToC(unsafe.Pointer(&data.UVs[0]), len(data.UVs)*4))
	}
	if len(data.Indices) > 0 {
		mesh.Indices = (*uint16)(copyToC(unsafe.Pointer(&data.Indices[0]), len(data.Indices)*2))
	}
	return mesh
}

func copyToC(data unsafe.Pointer, size int) unsafe.Pointer {
	if size <= 0 || data == nil {
		return nil
	}
	ptr := C.malloc(C.size_t(size))
	if ptr == nil {
		return nil
	}
	cSlice := unsafe.Slice((*byte)(ptr), size)
	goSlice := unsafe.Slice((*byte)(data), size)
	copy(cSlice, goSlice)
	return ptr
}
