package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"FortressModels/shared/config"
	"FortressModels/shared/pipeline"
	"FortressModels/shared/store"
)

// Cores para o terminal (ANSI)
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

var (
	configPath  string
	modelsDir   string
	texturesDir string
	dbPath      string
	atlasDir    string
	pageSize    int
	workers     int
	printTree   bool
	skipDB      bool
)

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "Arquivo de configuração (json, toml ou yaml)")
	f.StringVar(&modelsDir, "models", "", "Diretório das definições (.hcl)")
	f.StringVar(&texturesDir, "textures", "", "Diretório das texturas")
	f.StringVar(&dbPath, "db", "", "Banco de saída")
	f.StringVar(&atlasDir, "atlas-dir", "", "Diretório onde as páginas do atlas são exportadas em PNG (vazio desativa)")
	f.IntVar(&pageSize, "page-size", 0, "Lado da página do atlas em pixels")
	f.IntVar(&workers, "workers", 0, "Goroutines de leitura de texturas")
	f.BoolVar(&printTree, "print-tree", false, "Imprime a árvore de identificadores de cada classe")
	f.BoolVar(&skipDB, "no-db", false, "Não grava o banco (só valida e exporta)")
}

var rootCmd = &cobra.Command{
	Use:          "builder",
	Short:        "Compila as definições de modelos em um catálogo pronto para o servidor",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		setupLog(cfg.LogFile)

		fmt.Println(ColorCyan + "╔══════════════════════════════════════╗" + ColorReset)
		fmt.Println(ColorCyan + "║      FortressModels Builder          ║" + ColorReset)
		fmt.Println(ColorCyan + "╚══════════════════════════════════════╝" + ColorReset)

		start := time.Now()

		fmt.Printf(ColorYellow+"\n[1/3] Compilando definições de %s..."+ColorReset+"\n", cfg.ModelsDir)
		res, err := pipeline.Build(cmd.Context(), pipeline.Env{
			Models:   osfs.New(cfg.ModelsDir),
			Textures: osfs.New(cfg.TexturesDir),
			Logger:   log.Default(),
			PageSize: cfg.AtlasPageSize,
			Workers:  cfg.FetchWorkers,
		})
		if err != nil {
			return fmt.Errorf("falha no build: %w", err)
		}
		fmt.Printf(ColorGreen+"  ✓ %d modelos, %d texturas, %d páginas"+ColorReset+"\n",
			res.Registry.Len(), len(res.Textures), len(res.Atlas.Pages))

		if cfg.PrintTree {
			res.Registry.PrintTree(cmd.OutOrStdout())
		}

		fmt.Println(ColorYellow + "\n[2/3] Exportando atlas..." + ColorReset)
		if cfg.AtlasDir == "" {
			fmt.Println("  - Exportação desativada")
		} else {
			files, err := exportAtlas(cfg.AtlasDir, res.Atlas)
			if err != nil {
				return err
			}
			fmt.Printf(ColorGreen+"  ✓ %d páginas em %s"+ColorReset+"\n", len(files), cfg.AtlasDir)
		}

		fmt.Println(ColorYellow + "\n[3/3] Gravando catálogo..." + ColorReset)
		if skipDB {
			fmt.Println("  - Gravação desativada (--no-db)")
		} else {
			st, err := store.Open(cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Save(res); err != nil {
				return fmt.Errorf("falha ao gravar %s: %w", cfg.DatabasePath, err)
			}
			fmt.Printf(ColorGreen+"  ✓ %s"+ColorReset+"\n", cfg.DatabasePath)
		}

		fmt.Printf("\n"+ColorCyan+"Build finalizada com sucesso em %v!"+ColorReset+"\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

// loadConfig lê o arquivo de configuração e aplica as flags alteradas.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("models") {
		cfg.ModelsDir = modelsDir
	}
	if flags.Changed("textures") {
		cfg.TexturesDir = texturesDir
	}
	if flags.Changed("db") {
		cfg.DatabasePath = dbPath
	}
	if flags.Changed("atlas-dir") {
		cfg.AtlasDir = atlasDir
	}
	if flags.Changed("page-size") {
		cfg.AtlasPageSize = pageSize
	}
	if flags.Changed("workers") {
		cfg.FetchWorkers = workers
	}
	if flags.Changed("print-tree") {
		cfg.PrintTree = printTree
	}
	return cfg, nil
}

func setupLog(logFile string) {
	log.SetFlags(log.Ltime | log.Lshortfile)
	if logFile == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return
	}
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(ColorRed + err.Error() + ColorReset)
		os.Exit(1)
	}
}
