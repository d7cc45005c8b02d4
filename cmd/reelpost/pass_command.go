package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelpost/internal/config"
	"reelpost/internal/logging"
	"reelpost/internal/pipeline"
	"reelpost/internal/queue"
)

func newPassCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pass",
		Short: "Process every unprocessed episode once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				reg, err := pipeline.NewRegistry(cfg, store, logger)
				if err != nil {
					return err
				}
				orchestrator, err := pipeline.New(reg, pipeline.OptionsFromConfig(cfg, logger))
				if err != nil {
					return err
				}
				result, err := orchestrator.RunPass(cmd.Context())

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Pass", "Selected", "Succeeded", "Failed", "Skipped", "Duration"},
					[][]string{{
						shortID(result.PassID),
						strconv.Itoa(result.Selected),
						strconv.Itoa(result.Succeeded),
						strconv.Itoa(result.Failed),
						strconv.Itoa(result.Skipped),
						result.Duration.Round(time.Millisecond).String(),
					}},
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				if err != nil {
					return err
				}
				if result.Failed > 0 {
					return fmt.Errorf("%d episode(s) failed; see 'reelpost episode list --pending'", result.Failed)
				}
				return nil
			})
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
