package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"FortressModels/cliente/internal/app"
	"FortressModels/cliente/internal/client"
	"FortressModels/shared/catalog"
	"FortressModels/shared/config"
)

var (
	configPath string
	serverURL  string
	neighbors  string
	timeout    time.Duration
)

func init() {
	// Raylib/OpenGL exige rodar na thread principal do SO
	runtime.LockOSThread()

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Arquivo de configuração (json, toml ou yaml)")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "URL do servidor (padrão: server_url da configuração)")

	resolveCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Tempo máximo de espera pela resposta")
	previewCmd.Flags().StringVarP(&neighbors, "neighbors", "n", "", "Vizinhos ocupados, ex. \"up,left\"")

	rootCmd.AddCommand(resolveCmd, previewCmd)
}

var rootCmd = &cobra.Command{
	Use:          "cliente",
	Short:        "Cliente de consultas do catálogo de modelos FortressModels",
	SilenceUsage: true,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve [forma] [identificador]",
	Short: "Consulta o servidor e mostra o modelo escolhido",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, shape, err := setup(cmd, args[0])
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		nc := client.NewNetworkClient(cfg.ServerURL)
		nc.MaxRetries = 1
		if err := nc.Connect(ctx); err != nil {
			return err
		}
		defer nc.Close()

		resp, err := nc.Resolve(ctx, int32(shape), args[1])
		if err != nil {
			return err
		}
		m, err := resp.ToModel()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %q -> modelo %d (%s) transparente=%v %s\n",
			shape, args[1], resp.ModelIndex, catalog.MatchKind(resp.Match), resp.Transparent, m)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview [forma] [identificador]",
	Short: "Abre uma janela com o voxel do modelo resolvido",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, shape, err := setup(cmd, args[0])
		if err != nil {
			return err
		}
		mask, err := app.ParseMask(neighbors)
		if err != nil {
			return err
		}
		return app.New(cfg, shape, args[1], mask).Run(cmd.Context())
	},
}

// setup carrega a configuração, aplica as flags e valida a forma.
func setup(cmd *cobra.Command, shapeName string) (*config.Config, catalog.Shape, error) {
	cfg := config.Load()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return nil, 0, err
		}
	}
	if cmd.Flags().Changed("server") {
		cfg.ServerURL = serverURL
	}

	log.SetFlags(log.Ltime | log.Lshortfile)
	if cfg.LogFile != "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666); err == nil {
			log.SetOutput(f)
		}
	}

	shape, err := catalog.ParseShape(shapeName)
	if err != nil {
		return nil, 0, err
	}
	return cfg, shape, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
