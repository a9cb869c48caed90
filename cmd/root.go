// File: cmd/root.go
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pinpoint-cli/internal/config"
	"github.com/xkilldash9x/pinpoint-cli/internal/observability"
)

var (
	cfgFile string
	// cfg is the resolved configuration, populated before any command runs.
	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "pinpoint",
	Short:   "Pinpoint locates and clicks page elements by image or selector cascade.",
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Runs before any command, setting up config and logging.
		if err := initializeConfig(); err != nil {
			return err
		}

		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			// Initialize a fallback logger so the failure itself is visible.
			observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "pinpoint"})
			return err
		}
		cfg = loaded

		observability.InitializeLogger(cfg.Logger)
		observability.GetLogger().Info("Starting pinpoint", zap.String("version", Version))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It installs a signal-aware context so an interrupt aborts
// between attempts rather than mid-click.
func Execute() {
	ctx, stop := signal.NotifyContext(rootCmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer observability.Sync()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if logger := observability.GetLogger(); logger != nil {
			logger.Error("Command execution failed", zap.Error(err))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newClickCmd())
	rootCmd.AddCommand(newFindCmd())
}

// initializeConfig reads in the config file and environment variables if set.
func initializeConfig() error {
	v := viper.GetViper()
	config.SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PINPOINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars.
	}
	return nil
}
