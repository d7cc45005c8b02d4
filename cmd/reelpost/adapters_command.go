package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelpost/internal/sites"
)

func newAdaptersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List registered site adapters and their domains",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry := sites.FromConfig(cfg, nil)
			rows := make([][]string, 0, registry.Len()+1)
			for _, entry := range registry.Entries() {
				adapter, _ := registry.Lookup(entry.Domain)
				rows = append(rows, []string{entry.Domain, entry.Adapter, yesNo(sites.AllowsAnonymous(adapter))})
			}
			generic := "disabled"
			if cfg.YTDLP.Enabled {
				generic = "allow-listed domains"
			}
			rows = append(rows, []string{"*", "yt-dlp (" + generic + ")", yesNo(cfg.YTDLP.AllowAnonymous)})

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Domain", "Adapter", "Anonymous"}, rows, nil))
			return nil
		},
	}
}
