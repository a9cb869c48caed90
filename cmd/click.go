// File: cmd/click.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pinpoint-cli/internal/browser"
	"github.com/xkilldash9x/pinpoint-cli/internal/driver"
	"github.com/xkilldash9x/pinpoint-cli/internal/observability"
)

// newClickCmd creates and configures the `click` command.
func newClickCmd() *cobra.Command {
	clickCmd := &cobra.Command{
		Use:   "click [urls...]",
		Short: "Locates the configured element on each page and clicks it",
		Long: `Processes an ordered list of targets. Each target is located either by
matching a stored reference image against a screenshot (--image) or by
probing a ranked cascade of selectors (--selector, repeatable, most stable
first). Targets may also be supplied as a JSON file via --targets.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so command-line flags override
			// config file and environment values with the right precedence.
			if err := viper.BindPFlag("retry.max_attempts", cmd.Flags().Lookup("attempts")); err != nil {
				return err
			}
			if err := viper.BindPFlag("locator.match_threshold", cmd.Flags().Lookup("threshold")); err != nil {
				return err
			}
			if err := viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless")); err != nil {
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Flag bindings may have changed retry/locator settings; reload.
			if err := viper.Unmarshal(cfg); err != nil {
				return fmt.Errorf("failed to re-unmarshal config with flag overrides: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			targets, err := collectTargets(cmd, args)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				return fmt.Errorf("no targets: pass URLs or --targets <file>")
			}

			parallel, _ := cmd.Flags().GetInt("parallel")

			manager := browser.NewManager(ctx, cfg, logger)
			defer shutdownManager(manager, logger)

			d := driver.New(cfg, logger, func(ctx context.Context) (driver.Session, error) {
				return manager.NewSession(ctx)
			})

			summary := d.Run(ctx, targets, parallel)

			fmt.Printf("\nCompleted: %d/%d targets clicked (%d not found, %d failed)\n",
				summary.Clicked, summary.Total, summary.NotFound, summary.Failed)

			if err := ctx.Err(); err != nil {
				return fmt.Errorf("run aborted: %w", err)
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%d of %d targets failed", summary.Failed, summary.Total)
			}
			return nil
		},
	}

	clickCmd.Flags().String("targets", "", "JSON file with an ordered target list")
	clickCmd.Flags().String("image", "", "Reference image to locate (visual strategy)")
	clickCmd.Flags().StringArray("selector", nil, "Selector candidate, repeatable; order is priority (DOM strategy)")
	clickCmd.Flags().Float64("threshold", 0.8, "Minimum visual match confidence (overrides config/env)")
	clickCmd.Flags().Int("attempts", 0, "Maximum locate attempts per target (overrides config/env)")
	clickCmd.Flags().Int("parallel", 1, "Independent sessions to run concurrently")
	clickCmd.Flags().Bool("headless", true, "Run the browser headless (overrides config/env)")

	return clickCmd
}

// collectTargets merges the --targets file with targets built from URL
// arguments and the strategy flags.
func collectTargets(cmd *cobra.Command, args []string) ([]driver.Target, error) {
	targetsFile, _ := cmd.Flags().GetString("targets")
	image, _ := cmd.Flags().GetString("image")
	selectors, _ := cmd.Flags().GetStringArray("selector")

	var targets []driver.Target
	if targetsFile != "" {
		loaded, err := driver.LoadTargets(targetsFile)
		if err != nil {
			return nil, err
		}
		targets = loaded
	}

	for _, url := range args {
		t := driver.Target{
			URL:            url,
			ReferenceImage: image,
			Selectors:      selectors,
		}
		if err := t.Validate(); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

func shutdownManager(manager *browser.Manager, logger *zap.Logger) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := manager.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Error during browser manager shutdown", zap.Error(err))
	}
}
