package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config armazena as configurações do FortressModels.
type Config struct {
	// Definições e texturas
	ModelsDir   string `json:"models_dir" toml:"models_dir" yaml:"models_dir"`
	TexturesDir string `json:"textures_dir" toml:"textures_dir" yaml:"textures_dir"`

	// Atlas
	AtlasPageSize int    `json:"atlas_page_size" toml:"atlas_page_size" yaml:"atlas_page_size"`
	FetchWorkers  int    `json:"fetch_workers" toml:"fetch_workers" yaml:"fetch_workers"`
	AtlasDir      string `json:"atlas_dir" toml:"atlas_dir" yaml:"atlas_dir"` // PNGs exportados pelo builder

	// Banco com o catálogo compilado (usado pelo builder e pelo servidor)
	DatabasePath string `json:"database_path" toml:"database_path" yaml:"database_path"`

	// Servidor de consultas
	ListenAddr string `json:"listen_addr" toml:"listen_addr" yaml:"listen_addr"`
	// Cliente
	ServerURL string `json:"server_url" toml:"server_url" yaml:"server_url"`

	// Janela de preview
	WindowWidth  int32  `json:"window_width" toml:"window_width" yaml:"window_width"`
	WindowHeight int32  `json:"window_height" toml:"window_height" yaml:"window_height"`
	WindowTitle  string `json:"window_title" toml:"window_title" yaml:"window_title"`
	TargetFPS    int32  `json:"target_fps" toml:"target_fps" yaml:"target_fps"`

	// Debug
	LogFile   string `json:"log_file" toml:"log_file" yaml:"log_file"`
	PrintTree bool   `json:"print_tree" toml:"print_tree" yaml:"print_tree"`
}

// DefaultConfig retorna a configuração padrão.
func DefaultConfig() *Config {
	return &Config{
		ModelsDir:   "assets/models",
		TexturesDir: "assets/textures",

		AtlasPageSize: 1024,
		FetchWorkers:  4,
		AtlasDir:      "saves/atlas",

		DatabasePath: "saves/models.fm",

		ListenAddr: ":8080",
		ServerURL:  "ws://127.0.0.1:8080/ws",

		WindowWidth:  1280,
		WindowHeight: 720,
		WindowTitle:  "FortressModels",
		TargetFPS:    60,

		LogFile:   "",
		PrintTree: false,
	}
}

// configPath retorna o caminho do arquivo de configuração.
func configPath() string {
	execDir, err := os.Executable()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(filepath.Dir(execDir), "config.json")
}

// Load carrega config.json ao lado do executável.
// Se o arquivo não existir ou for inválido, retorna as configurações padrão.
func Load() *Config {
	cfg, err := LoadFile(configPath())
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// LoadFile carrega um arquivo específico. O formato vem da extensão:
// .toml, .yaml/.yml ou JSON para qualquer outra.
// Campos ausentes mantêm o valor padrão.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("falha ao ler configuração %s: %w", path, err)
	}
	return cfg, nil
}

// Save salva as configurações em config.json ao lado do executável.
func (c *Config) Save() error {
	return c.SaveFile(configPath())
}

// SaveFile salva no formato indicado pela extensão de path.
func (c *Config) SaveFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		data, err = toml.Marshal(c)
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
