package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"FortressModels/shared/config"
)

var (
	configPath string
	binDir     string
	waitFor    time.Duration
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Arquivo de configuração repassado ao servidor e ao cliente")
	rootCmd.Flags().StringVar(&binDir, "bin", ".", "Diretório com os executáveis servidor e cliente")
	rootCmd.Flags().DurationVar(&waitFor, "wait", 15*time.Second, "Tempo máximo de espera pelo servidor")
}

var rootCmd = &cobra.Command{
	Use:          "launcher [forma] [identificador]",
	Short:        "Sobe o servidor e abre o preview do modelo resolvido",
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		if configPath != "" {
			var err error
			if cfg, err = config.LoadFile(configPath); err != nil {
				return err
			}
		}

		fmt.Println("╔══════════════════════════════════════╗")
		fmt.Println("║      FortressModels Launcher         ║")
		fmt.Println("╚══════════════════════════════════════╝")

		fmt.Println("[1/2] Iniciando Servidor...")
		server := exec.Command(binary("servidor"), passConfig()...)
		server.Stdout = os.Stdout
		server.Stderr = os.Stderr
		if err := server.Start(); err != nil {
			return fmt.Errorf("erro ao iniciar servidor: %w", err)
		}
		defer func() {
			// O servidor só existe para esta sessão de preview
			server.Process.Kill()
			server.Wait()
		}()

		fmt.Println("Aguardando inicialização do servidor e carregamento do catálogo...")
		ctx, cancel := context.WithTimeout(cmd.Context(), waitFor)
		defer cancel()
		st, err := waitServer(ctx, cfg.ServerURL, 250*time.Millisecond)
		if err != nil {
			return err
		}
		log.Printf("[Launcher] %s (%d modelos, %d páginas)", st.Message, st.Models, st.Pages)

		fmt.Println("[2/2] Abrindo Cliente...")
		clientArgs := append([]string{"preview", args[0], args[1]}, passConfig()...)
		client := exec.CommandContext(cmd.Context(), binary("cliente"), clientArgs...)
		client.Stdout = os.Stdout
		client.Stderr = os.Stderr
		if err := client.Run(); err != nil {
			return fmt.Errorf("cliente terminou com erro: %w", err)
		}
		return nil
	},
}

func passConfig() []string {
	if configPath == "" {
		return nil
	}
	return []string{"--config", configPath}
}

// binary resolve o caminho absoluto do executável, com .exe no Windows.
func binary(name string) string {
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	abs, err := filepath.Abs(filepath.Join(binDir, name))
	if err != nil {
		return name
	}
	return abs
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
