package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reelpost/internal/config"
	"reelpost/internal/credentials"
	"reelpost/internal/queue"
)

func newAllowCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allow",
		Short: "Manage the generic downloader domain allow-list",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <domain-or-url>",
		Short: "Allow a domain for the generic downloader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := credentials.NormalizeDomain(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				if err := store.AllowDomain(cmd.Context(), domain); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Allowed %s\n", domain)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <domain-or-url>",
		Short: "Remove a domain from the allow-list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := credentials.NormalizeDomain(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				if err := store.DisallowDomain(cmd.Context(), domain); err != nil {
					if errors.Is(err, queue.ErrNotFound) {
						return fmt.Errorf("%s is not on the allow-list", domain)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", domain)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List allowed domains",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				domains, err := store.ListAllowedDomains(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(domains) == 0 {
					fmt.Fprintln(out, "No domains allowed")
					return nil
				}
				rows := make([][]string, 0, len(domains))
				for _, d := range domains {
					rows = append(rows, []string{d.Domain, d.CreatedAt.Local().Format("2006-01-02 15:04")})
				}
				fmt.Fprintln(out, renderTable([]string{"Domain", "Added"}, rows, nil))
				return nil
			})
		},
	})

	return cmd
}
