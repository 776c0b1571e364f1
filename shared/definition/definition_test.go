package definition

import (
	"bytes"
	"errors"
	"log"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FortressModels/shared/model"
)

func TestParseKeepsDirectiveOrder(t *testing.T) {
	src := `
transparent = true

params {
  main = "stone.png"
  side = "#main"
  aaa  = "z.png"
}

inherit "wall/mod" {}

face "up" {
  size     = [2, 1]
  offset   = [0, 0.5, 0]
  rotation = 90
  texture  = "main"
  clip     = [0, 0, 16, 16]
  cull     = "hidden:up"
}

mesh_import "meshes/pillar.obj" {
  texture = "side"
}

mesh {
  vertices = [[0,0,0], [1,0,0], [0,1,0]]
  uvs      = [[0,0], [1,0], [0,1]]
  indices  = [[0, 1, 2]]
  texture  = "main"
}
`
	def, err := Parse([]byte(src), "wall/x.hcl", "wall/x")
	require.NoError(t, err)

	require.NotNil(t, def.Transparent)
	assert.True(t, *def.Transparent)
	assert.Equal(t, "wall/x", def.Key)
	require.Len(t, def.Directives, 5)

	params, ok := def.Directives[0].(model.Params)
	require.True(t, ok)
	assert.Equal(t, []model.Param{
		{Name: "main", Expr: "stone.png"},
		{Name: "side", Expr: "#main"},
		{Name: "aaa", Expr: "z.png"},
	}, params.Entries)

	assert.Equal(t, model.Inherit{Target: "wall/mod"}, def.Directives[1])

	face, ok := def.Directives[2].(model.Face)
	require.True(t, ok)
	assert.Equal(t, model.Up, face.Direction)
	assert.Equal(t, mgl32.Vec2{2, 1}, face.SizeOrDefault())
	assert.Equal(t, mgl32.Vec3{0, 0.5, 0}, face.OffsetOrDefault())
	assert.Equal(t, float32(90), face.RotationOrDefault())
	assert.Equal(t, "main", face.Texture.Name)
	assert.Equal(t, &model.Rect{W: 16, H: 16}, face.Texture.Clip)
	assert.Equal(t, model.WhenHidden(model.Up), face.CullRule)

	mi, ok := def.Directives[3].(model.MeshImport)
	require.True(t, ok)
	assert.Equal(t, "meshes/pillar.obj", mi.Path)
	assert.Equal(t, model.Never, mi.CullRule)

	mesh, ok := def.Directives[4].(model.Mesh)
	require.True(t, ok)
	assert.Len(t, mesh.Vertices, 3)
	assert.Nil(t, mesh.Normals)
	assert.Equal(t, [][3]uint16{{0, 1, 2}}, mesh.Indices)
}

func TestParseFaceDefaults(t *testing.T) {
	def, err := Parse([]byte(`face "down" { texture = "t" }`), "f.hcl", "f")
	require.NoError(t, err)
	require.Nil(t, def.Transparent)

	face := def.Directives[0].(model.Face)
	assert.Nil(t, face.Size)
	assert.Nil(t, face.Offset)
	assert.Nil(t, face.Rotation)
	assert.Nil(t, face.Texture.Clip)
	assert.Equal(t, model.Never, face.CullRule)
	assert.Equal(t, mgl32.Vec2{1, 1}, face.SizeOrDefault())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"sintaxe", `face "up" {`},
		{"bloco desconhecido", `light {}`},
		{"direção inválida", `face "sideways" { texture = "a" }`},
		{"textura ausente", `face "up" { size = [1, 1] }`},
		{"size curto", "face \"up\" {\n texture = \"a\"\n size = [1]\n}"},
		{"rotação fora do intervalo", "face \"up\" {\n texture = \"a\"\n rotation = 360\n}"},
		{"cull inválido", "face \"up\" {\n texture = \"a\"\n cull = \"hidden\"\n}"},
		{"clip curto", "face \"up\" {\n texture = \"a\"\n clip = [1, 2]\n}"},
		{"índice fora da malha", `mesh {
vertices = [[0,0,0]]
uvs = [[0,0]]
indices = [[0, 1, 2]]
texture = "a"
}`},
		{"uvs desalinhadas", `mesh {
vertices = [[0,0,0]]
uvs = []
indices = []
texture = "a"
}`},
		{"param não textual", `params {
x = [1]
}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl", "bad")
			require.Error(t, err)
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, "bad.hcl", loadErr.File)
		})
	}
}

func writeFiles(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
}

func TestLoadShapeDerivesPaths(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{
		"wall/mod.hcl":           `params { main = "stone.png" }`,
		"wall/granite.hcl":       `inherit "wall/mod" {}`,
		"wall/wood/mod.hcl":      `params { main = "wood.png" }`,
		"wall/wood/oak.hcl":      `inherit "wall/wood/mod" {}`,
		"wall/wood/notes.txt":    `ignorado`,
		"wall/meshes/pillar.obj": "v 0 0 0\n",
		"floor/mod.hcl":          `params {}`,
	})

	var logs bytes.Buffer
	l := NewLoader(fs, log.New(&logs, "", 0))
	entries, err := l.LoadShape("wall")
	require.NoError(t, err)

	got := map[string]string{}
	for _, e := range entries {
		assert.Equal(t, "wall", e.Shape)
		got[e.Path.String()] = e.Definition.Key
	}
	assert.Equal(t, map[string]string{
		"":         "wall/mod",
		"GRANITE":  "wall/granite",
		"WOOD":     "wall/wood/mod",
		"WOOD:OAK": "wall/wood/oak",
	}, got)
}

func TestLoadShapeMissingRoot(t *testing.T) {
	l := NewLoader(memfs.New(), log.New(&bytes.Buffer{}, "", 0))
	entries, err := l.LoadShape("ramp")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadShapePropagatesParseErrors(t *testing.T) {
	fs := memfs.New()
	writeFiles(t, fs, map[string]string{"wall/broken.hcl": `face "up" {`})

	_, err := NewLoader(fs, log.New(&bytes.Buffer{}, "", 0)).LoadShape("wall")
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "wall/broken.hcl", loadErr.File)
}

func TestReadMissingFile(t *testing.T) {
	l := NewLoader(memfs.New(), nil)
	_, err := l.Read("wall/nada")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.False(t, l.Exists("wall/nada"))
}
