package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelpost/internal/config"
	"reelpost/internal/credentials"
	"reelpost/internal/logging"
	"reelpost/internal/queue"
	"reelpost/internal/secrets"
)

func newSiteCredCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitecred",
		Short: "Manage per-site login credentials",
	}
	cmd.AddCommand(newSiteCredAddCommand(ctx))
	cmd.AddCommand(newSiteCredListCommand(ctx))
	cmd.AddCommand(newSiteCredDeleteCommand(ctx))
	return cmd
}

func newSiteCredAddCommand(ctx *commandContext) *cobra.Command {
	var secretFlag string

	cmd := &cobra.Command{
		Use:   "add <domain-or-url> <account-id>",
		Short: "Store an encrypted credential (secret read from stdin unless --secret)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := secretFlag
			if secret == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read secret from stdin: %w", err)
				}
				secret = strings.TrimRight(line, "\r\n")
			}
			if secret == "" {
				return errors.New("secret required")
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				box, err := secrets.NewFromConfig(cfg)
				if err != nil {
					return err
				}
				resolver := credentials.NewResolver(store, box, logging.NewNop())
				domain, err := resolver.Save(cmd.Context(), args[0], args[1], secret)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored credential for %s (%s)\n", domain, credentials.MaskAccountID(args[1]))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&secretFlag, "secret", "", "Secret value (prefer stdin)")
	return cmd
}

func newSiteCredListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored credentials with masked account ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				creds, err := store.ListSiteCredentials(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(creds) == 0 {
					fmt.Fprintln(out, "No site credentials stored")
					return nil
				}
				rows := make([][]string, 0, len(creds))
				for _, cred := range creds {
					rows = append(rows, []string{
						cred.Domain,
						credentials.MaskAccountID(cred.AccountID),
						cred.UpdatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Domain", "Account", "Updated"}, rows, nil))
				return nil
			})
		},
	}
}

func newSiteCredDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <domain-or-url> <account-id>",
		Short: "Remove a stored credential",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			domain, err := credentials.NormalizeDomain(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				if err := store.DeleteSiteCredential(cmd.Context(), domain, args[1]); err != nil {
					if errors.Is(err, queue.ErrNotFound) {
						return fmt.Errorf("no credential for %s/%s", domain, credentials.MaskAccountID(args[1]))
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted credential for %s\n", domain)
				return nil
			})
		},
	}
}
