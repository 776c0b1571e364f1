package main

import (
	"fmt"
	"image/png"
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"

	"FortressModels/shared/atlas"
)

// exportAtlas grava cada página como dir/page_<n>.png e retorna os caminhos.
func exportAtlas(dir string, a *atlas.Atlas) ([]string, error) {
	fs := osfs.New(dir)
	if err := fs.MkdirAll(".", 0755); err != nil {
		return nil, fmt.Errorf("falha ao criar %s: %w", dir, err)
	}

	files := make([]string, 0, len(a.Pages))
	for i, page := range a.Pages {
		name := fmt.Sprintf("page_%d.png", i)
		f, err := fs.Create(name)
		if err != nil {
			return nil, fmt.Errorf("falha ao criar %s: %w", name, err)
		}
		err = png.Encode(f, page)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("falha ao gravar %s: %w", name, err)
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}
