// Package pipeline executa o build completo dos catálogos: carga e bake
// síncronos, barreira de texturas e finalização com o atlas.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-git/go-billy/v5"

	"FortressModels/shared/atlas"
	"FortressModels/shared/bake"
	"FortressModels/shared/catalog"
	"FortressModels/shared/definition"
	"FortressModels/shared/ident"
)

// Env reúne tudo que o build precisa. Não há estado global: cada build
// recebe o seu próprio Env.
type Env struct {
	// Models é a raiz das definições e das malhas importadas.
	Models billy.Filesystem
	// Textures é a raiz contra a qual os caminhos de textura são resolvidos.
	Textures billy.Filesystem
	Logger   *log.Logger
	PageSize int
	Workers  int
}

// Result é o produto de um build.
type Result struct {
	Registry *catalog.Registry
	Atlas    *atlas.Atlas
	// Textures é a tabela global, na mesma ordem de Atlas.Placements.
	Textures []string
}

type published struct {
	shape catalog.Shape
	path  ident.Path
	baked *bake.Baked
}

// Build roda o pipeline. Qualquer erro aborta o build inteiro; para tentar
// de novo basta chamar Build outra vez.
func Build(ctx context.Context, env Env) (*Result, error) {
	logger := env.Logger
	if logger == nil {
		logger = log.Default()
	}
	if env.Models == nil || env.Textures == nil {
		return nil, fmt.Errorf("pipeline: sistemas de arquivos de modelos e texturas são obrigatórios")
	}
	pageSize := env.PageSize
	if pageSize <= 0 {
		pageSize = atlas.DefaultPageSize
	}
	start := time.Now()

	// Fase 1: carga
	loader := definition.NewLoader(env.Models, logger)
	baker := bake.NewBaker(loader, env.Models, logger)

	var entries []published
	for _, shape := range catalog.AllShapes() {
		defs, err := loader.LoadShape(shape.Dir())
		if err != nil {
			return nil, err
		}
		for _, e := range defs {
			baked, err := baker.Bake(e.Definition)
			if err != nil {
				return nil, err
			}
			entries = append(entries, published{shape: shape, path: e.Path, baked: baked})
		}
	}

	table, err := baker.Intern()
	if err != nil {
		return nil, err
	}
	paths := table.Paths()
	logger.Printf("[Pipeline] Carga concluída: %d definições, %d texturas (%v)", len(entries), len(paths), time.Since(start))

	// Barreira: todas as texturas precisam estar decodificadas.
	images, err := atlas.Fetch(ctx, env.Textures, paths, env.Workers, logger).Wait(ctx)
	if err != nil {
		return nil, err
	}

	// Fase 2: finalização
	atl, err := atlas.Build(images, pageSize, logger)
	if err != nil {
		return nil, err
	}
	if err := baker.Finalize(atl.Placements); err != nil {
		return nil, err
	}

	registry := catalog.NewRegistry(logger)
	for _, e := range entries {
		registry.Catalog(e.shape).AddModel(e.path, e.baked.Compiled())
	}

	logger.Printf("[Pipeline] Build concluído: %d modelos, %d páginas de atlas (%v)", registry.Len(), len(atl.Pages), time.Since(start))
	return &Result{Registry: registry, Atlas: atl, Textures: paths}, nil
}
