package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"telegram-game-bot/internal/buildcheck"
	"telegram-game-bot/internal/config"
)

func verifyCmd() *cobra.Command {
	var (
		manifest string
		module   string
		version  string
		only     string
		timeout  time.Duration
	)
	d := config.Defaults().BuildCheck

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the linked Telegram client against the pinned version and required API",
		Long: `verify runs the smoke checks used by the image build.

  --check version  print the linked version and assert it equals --version
                   (and the pin in --manifest, when given)
  --check symbols  assert the client still exposes the methods the bot calls
  --check all      both (default)

Any failed check exits non-zero.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var m *buildcheck.Manifest
			if manifest != "" {
				var err error
				if m, err = buildcheck.ParseManifest(manifest); err != nil {
					return err
				}
			}

			bc := config.BuildCheckConfig{Module: module, Version: version}
			var checks []buildcheck.Check
			switch only {
			case "version":
				checks = buildcheck.DefaultChecks(bc, m)[:1]
			case "symbols":
				checks = buildcheck.SymbolChecks()
			case "all", "":
				checks = buildcheck.DefaultChecks(bc, m)
			default:
				return fmt.Errorf("unknown --check %q (want version, symbols or all)", only)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			results, err := buildcheck.Run(ctx, logger, checks...)
			for _, r := range results {
				status := "ok"
				if !r.OK() {
					status = "FAIL"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-4s %s %s\n", status, r.Name, r.Detail)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&manifest, "manifest", "", "go.mod to read the pinned version from")
	cmd.Flags().StringVar(&module, "module", d.Module, "module path of the Telegram client")
	cmd.Flags().StringVar(&version, "version", d.Version, "expected version of the module")
	cmd.Flags().StringVar(&only, "check", "all", "which checks to run: version, symbols or all")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall time limit")
	return cmd
}
