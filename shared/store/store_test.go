package store

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"log"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FortressModels/shared/catalog"
	"FortressModels/shared/ident"
	"FortressModels/shared/pipeline"
)

func buildSample(t *testing.T) *pipeline.Result {
	t.Helper()
	models := memfs.New()
	files := map[string]string{
		"wall/mod.hcl": `
params { main = "stone.png" }
face "up" {
  texture = "main"
  clip    = [0, 0, 8, 8]
  cull    = "hidden:up"
}
`,
		"wall/granite.hcl": "transparent = true\ninherit \"wall/mod\" {}\n",
		"floor/grass.hcl":  "params { g = \"grass.png\" }\nface \"up\" { texture = \"g\" }\n",
	}
	for name, content := range files {
		require.NoError(t, util.WriteFile(models, name, []byte(content), 0o644))
	}

	textures := memfs.New()
	for _, name := range []string{"stone.png", "grass.png"} {
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 16, 16))))
		require.NoError(t, util.WriteFile(textures, name, buf.Bytes(), 0o644))
	}

	res, err := pipeline.Build(context.Background(), pipeline.Env{
		Models:   models,
		Textures: textures,
		Logger:   log.New(&bytes.Buffer{}, "", 0),
		PageSize: 64,
		Workers:  1,
	})
	require.NoError(t, err)
	return res
}

func TestSaveAndLoad(t *testing.T) {
	res := buildSample(t)

	s, err := Open(filepath.Join(t.TempDir(), "sub", "models.fm"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(res))
	// Salvar de novo substitui em vez de duplicar.
	require.NoError(t, s.Save(res))

	loaded, err := s.Load(log.New(&bytes.Buffer{}, "", 0))
	require.NoError(t, err)

	assert.Equal(t, res.Textures, loaded.Textures)
	assert.Equal(t, res.Atlas.Placements, loaded.Atlas.Placements)
	assert.Equal(t, res.Atlas.PageSize, loaded.Atlas.PageSize)
	require.Len(t, loaded.Atlas.Pages, len(res.Atlas.Pages))
	assert.Equal(t, res.Atlas.Pages[0].Bounds(), loaded.Atlas.Pages[0].Bounds())
	assert.Equal(t, res.Registry.Len(), loaded.Registry.Len())

	for _, q := range []struct {
		shape catalog.Shape
		id    string
	}{
		{catalog.ShapeWall, ""},
		{catalog.ShapeWall, "GRANITE"},
		{catalog.ShapeWall, "OBSIDIAN:STRUCTURAL"},
		{catalog.ShapeWall, "OBSIDIAN"},
		{catalog.ShapeFloor, "GRASS"},
		{catalog.ShapeFloor, "SAND"},
	} {
		want, wantKind := res.Registry.Catalog(q.shape).Model(ident.Parse(q.id))
		got, gotKind := loaded.Registry.Catalog(q.shape).Model(ident.Parse(q.id))
		assert.Equal(t, wantKind, gotKind, "%s %q", q.shape, q.id)
		assert.Equal(t, want, got, "%s %q", q.shape, q.id)
	}

	page, err := s.AtlasPage(0)
	require.NoError(t, err)
	_, err = png.Decode(bytes.NewReader(page))
	assert.NoError(t, err)

	_, err = s.AtlasPage(42)
	assert.Error(t, err)
}

func TestLoadRejectsEmptyDatabase(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "empty.fm"))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(nil)
	assert.Error(t, err)
}

func TestLoadRejectsOtherFormatVersion(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "old.fm"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(buildSample(t)))
	require.NoError(t, s.DB.Save(&Metadata{Key: "FormatVersion", Value: "0"}).Error)
	_, err = s.Load(nil)
	assert.Error(t, err)
}
