package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"reviewflow/internal/config"
	"reviewflow/internal/logger"
)

const version = "0.1.0"

const (
	ExitSuccess      = 0
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "reviewctl",
	Short:         "Administrative tool for the review request service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "path to .env file")

	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(countersCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

// Run выполняет корневую команду и возвращает код выхода
func Run() int {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return ExitRuntimeError
	}
	return ExitSuccess
}

// loadConfig читает .env и окружение и настраивает логгер
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	cfg, err := config.NewEnvConfig()
	if err != nil {
		return nil, err
	}
	logger.Setup(cfg)
	return cfg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print reviewctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reviewctl version %s\n", version)
	},
}
