// File: cmd/find.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/pinpoint-cli/internal/browser"
	"github.com/xkilldash9x/pinpoint-cli/internal/driver"
	"github.com/xkilldash9x/pinpoint-cli/internal/observability"
)

// newFindCmd creates the `find` command, a dry run of the visual strategy:
// it reports where the reference matches without clicking anything.
func newFindCmd() *cobra.Command {
	findCmd := &cobra.Command{
		Use:   "find <url>",
		Short: "Reports where a reference image matches on a page, without clicking",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			image, _ := cmd.Flags().GetString("image")
			if image == "" {
				return fmt.Errorf("--image is required")
			}
			threshold, _ := cmd.Flags().GetFloat64("threshold")

			manager := browser.NewManager(ctx, cfg, logger)
			defer shutdownManager(manager, logger)

			sess, err := manager.NewSession(ctx)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.Navigate(ctx, args[0]); err != nil {
				return err
			}

			d := driver.New(cfg, logger, func(ctx context.Context) (driver.Session, error) {
				return manager.NewSession(ctx)
			})
			res, err := d.LocateVisual(ctx, sess, image, threshold)
			if err != nil {
				return err
			}

			if res.Found {
				fmt.Printf("Found at: %d, %d (confidence %.3f)\n", res.Center.X, res.Center.Y, res.Confidence)
			} else {
				fmt.Println("Image not found.")
			}
			return nil
		},
	}

	findCmd.Flags().String("image", "", "Reference image to locate")
	findCmd.Flags().Float64("threshold", 0, "Minimum match confidence (0 uses the configured default)")

	return findCmd
}
