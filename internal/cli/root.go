package cli

import (
	"os"

	"daily-trivia-service/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
	envFile    string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "trivia-service",
		Short:        "Daily trivia service: one AI-generated question set per day",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadEnvFiles(envFile)
		},
	}

	cmd.PersistentFlags().StringVar(&port, "port", "", "port to listen on (overrides config and PORT)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	cmd.AddCommand(NewStartCmd(&configPath, &port))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewGenerateCmd(&configPath))
	cmd.AddCommand(NewRecomputeCmd(&configPath))
	cmd.AddCommand(NewTokenCmd(&configPath))
	cmd.AddCommand(NewGrantAdminCmd(&configPath))
	return cmd
}

// loadConfig reads the config and configures the standard logger from it.
func loadConfig(path string) (config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.StandardLogger()
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.Log.Level).Warn("unknown log level, using info")
		logger.SetLevel(logrus.InfoLevel)
	}
	if cfg.Log.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}
