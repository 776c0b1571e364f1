package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"FortressModels/servidor/internal/server"
	"FortressModels/shared/config"
	"FortressModels/shared/pipeline"
	"FortressModels/shared/store"
)

var (
	configPath string
	listenAddr string
	dbPath     string
	fromSource bool
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Arquivo de configuração (json, toml ou yaml)")
	rootCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Endereço HTTP/WebSocket (padrão: listen_addr da configuração)")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "Banco gerado pelo builder (padrão: database_path da configuração)")
	rootCmd.Flags().BoolVar(&fromSource, "from-source", false, "Compila as definições na partida em vez de ler o banco")
}

var rootCmd = &cobra.Command{
	Use:   "servidor",
	Short: "Servidor de consultas do catálogo de modelos FortressModels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("listen") {
			cfg.ListenAddr = listenAddr
		}
		if cmd.Flags().Changed("db") {
			cfg.DatabasePath = dbPath
		}
		setupLog(cfg.LogFile)

		log.Println("╔══════════════════════════════════════╗")
		log.Println("║    FortressModels SERVER v0.1.0      ║")
		log.Println("╚══════════════════════════════════════╝")

		res, err := loadResult(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		srv := server.New(res, log.Default())
		defer srv.Close()

		// SIGHUP recarrega o catálogo sem derrubar as conexões
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		go func() {
			for range hup {
				log.Println("[Startup] SIGHUP recebido, recarregando catálogo...")
				next, err := loadResult(context.Background(), cfg)
				if err != nil {
					log.Printf("[Startup] Falha ao recarregar: %v", err)
					continue
				}
				srv.SetResult(next)
			}
		}()

		ln, err := net.Listen("tcp", cfg.ListenAddr)
		if err != nil {
			log.Printf("ERRO CRÍTICO: Não foi possível abrir %s. Há outra instância do servidor rodando?", cfg.ListenAddr)
			return fmt.Errorf("falha ao abrir porta: %w", err)
		}
		log.Printf("Servidor FortressModels iniciado em %s", ln.Addr())
		return http.Serve(ln, srv.Handler())
	},
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Load(), nil
	}
	return config.LoadFile(configPath)
}

// loadResult lê o banco do builder ou, com --from-source, roda o pipeline.
func loadResult(ctx context.Context, cfg *config.Config) (*pipeline.Result, error) {
	if fromSource {
		log.Printf("[Startup] Compilando definições de %s", cfg.ModelsDir)
		return pipeline.Build(ctx, pipeline.Env{
			Models:   osfs.New(cfg.ModelsDir),
			Textures: osfs.New(cfg.TexturesDir),
			Logger:   log.Default(),
			PageSize: cfg.AtlasPageSize,
			Workers:  cfg.FetchWorkers,
		})
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	res, err := st.Load(log.Default())
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar %s (rode o builder antes): %w", cfg.DatabasePath, err)
	}
	return res, nil
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
		log.Printf("Aviso: não foi possível abrir o log %s: %v", logFile, err)
		return
	}
	// MultiWriter para logar no console e no arquivo simultaneamente
	log.SetOutput(io.MultiWriter(os.Stdout, f))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
