package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"config.json", `{"models_dir": "defs", "fetch_workers": 8}`},
		{"config.toml", "models_dir = \"defs\"\nfetch_workers = 8\n"},
		{"config.yaml", "models_dir: defs\nfetch_workers: 8\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			cfg, err := LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "defs", cfg.ModelsDir)
			assert.Equal(t, 8, cfg.FetchWorkers)
			// Campos ausentes ficam com o padrão.
			assert.Equal(t, DefaultConfig().AtlasPageSize, cfg.AtlasPageSize)
			assert.Equal(t, DefaultConfig().ServerURL, cfg.ServerURL)
		})
	}
}

func TestSaveFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "a.toml", "a.yml"} {
		cfg := DefaultConfig()
		cfg.ListenAddr = ":9999"
		cfg.PrintTree = true

		path := filepath.Join(dir, name)
		require.NoError(t, cfg.SaveFile(path))
		got, err := LoadFile(path)
		require.NoError(t, err, name)
		assert.Equal(t, cfg, got, name)
	}
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nada.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
