package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelpost/internal/config"
	"reelpost/internal/deps"
	"reelpost/internal/preflight"
	"reelpost/internal/queue"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries, directories and the chat API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := preflight.CheckSystemDeps(cfg)
			missing := deps.MissingRequired(statuses)
			binRows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Path
				if !status.Available {
					detail = status.Detail
				}
				binRows = append(binRows, []string{
					status.Name,
					statusLabel(out, status.Available, "OK", missingLabel(status.Optional)),
					detail,
					status.Description,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Binary", "Status", "Detail", "Purpose"}, binRows, nil))

			results := preflight.RunAll(cmd.Context(), cfg)
			missing += len(preflight.Failed(results))
			checkRows := make([][]string, 0, len(results))
			for _, result := range results {
				checkRows = append(checkRows, []string{result.Name, statusLabel(out, result.Passed, "OK", "FAIL"), result.Detail})
			}
			var queueDetail string
			queueErr := ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				queueDetail = store.Path()
				return store.Ping(cmd.Context())
			})
			if queueErr != nil {
				queueDetail = queueErr.Error()
				missing++
			}
			checkRows = append(checkRows, []string{"Queue database", statusLabel(out, queueErr == nil, "OK", "FAIL"), queueDetail})
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))

			if missing > 0 {
				return fmt.Errorf("%d required check(s) failed", missing)
			}
			return nil
		},
	}
}

func missingLabel(optional bool) string {
	if optional {
		return "MISSING (optional)"
	}
	return "MISSING"
}
