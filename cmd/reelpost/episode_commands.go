package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelpost/internal/config"
	"reelpost/internal/intake"
	"reelpost/internal/logging"
	"reelpost/internal/queue"
)

func newEpisodeCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "episode",
		Short: "Inspect and enqueue episodes",
	}
	cmd.AddCommand(newEpisodeAddCommand(ctx))
	cmd.AddCommand(newEpisodeListCommand(ctx))
	cmd.AddCommand(newEpisodeStatusCommand(ctx))
	return cmd
}

type overrideFlags struct {
	channel string
	storage string
}

func (f *overrideFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.channel, "channel", "", "Publish to this channel instead of the configured one")
	cmd.Flags().StringVar(&f.storage, "storage", "", "Store with this enabled backend instead of the active one")
}

func (f *overrideFlags) request() intake.Request {
	return intake.Request{PublishChannel: f.channel, StorageBackend: f.storage}
}

func newEpisodeAddCommand(ctx *commandContext) *cobra.Command {
	var (
		meta      []string
		overrides overrideFlags
	)

	cmd := &cobra.Command{
		Use:   "add <series> <number> <source-url>",
		Short: "Enqueue an episode for processing",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("episode number %q: %w", args[1], err)
			}
			metadata, err := parseMetadata(meta)
			if err != nil {
				return err
			}
			req := overrides.request()
			req.Series, req.Number, req.SourceURL, req.Metadata = args[0], number, args[2], metadata
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				service := intake.NewService(store, logging.NewNop()).WithBackends(cfg.Storage.Backends)
				episode, err := service.Submit(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s (id %d)\n", episode.Label(), episode.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "Metadata key=value (repeatable)")
	overrides.register(cmd)
	return cmd
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var overrides overrideFlags

	cmd := &cobra.Command{
		Use:   "upload <title> <source-url>",
		Short: "Enqueue a one-off video published under its own title",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				service := intake.NewService(store, logging.NewNop()).WithBackends(cfg.Storage.Backends)
				episode, err := service.Upload(cmd.Context(), args[0], args[1], overrides.request())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued upload %q (id %d)\n", episode.Label(), episode.ID)
				return nil
			})
		},
	}
	overrides.register(cmd)
	return cmd
}

func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("metadata %q: expected key=value", pair)
		}
		metadata[key] = strings.TrimSpace(value)
	}
	return metadata, nil
}

func newEpisodeListCommand(ctx *commandContext) *cobra.Command {
	var (
		series    string
		pending   bool
		processed bool
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued episodes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pending && processed {
				return errors.New("--pending and --processed are mutually exclusive")
			}
			filter := queue.ListFilter{SeriesKey: strings.TrimSpace(series), Limit: limit}
			if pending || processed {
				filter.Processed = &processed
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				episodes, err := store.ListEpisodes(cmd.Context(), filter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(episodes) == 0 {
					fmt.Fprintln(out, "No episodes found")
					return nil
				}
				rows := make([][]string, 0, len(episodes))
				for _, ep := range episodes {
					rows = append(rows, []string{
						strconv.FormatInt(ep.ID, 10),
						ep.SeriesKey,
						strconv.Itoa(ep.SequenceNumber),
						episodeState(ep, time.Now()),
						strconv.Itoa(ep.Attempts),
						truncateCell(firstNonEmpty(ep.PublishedReference, ep.LastError), 60),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Series", "Episode", "State", "Attempts", "Reference / Error"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&series, "series", "", "Filter by series key")
	cmd.Flags().BoolVar(&pending, "pending", false, "Only unprocessed episodes")
	cmd.Flags().BoolVar(&processed, "processed", false, "Only processed episodes")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum rows (0 for all)")
	return cmd
}

func episodeState(ep *queue.Episode, now time.Time) string {
	switch {
	case ep.Processed:
		return "processed"
	case ep.ClaimOwner != "" && ep.ClaimExpiresAt != nil && ep.ClaimExpiresAt.After(now):
		return "in progress"
	case ep.LastError != "":
		return "failing"
	default:
		return "pending"
	}
}

func newEpisodeStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [<series> <number>]",
		Short: "Show queue counts, or the state of one episode",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or <series> <number>, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 2 {
				number, err := strconv.Atoi(args[1])
				if err != nil {
					return fmt.Errorf("episode number %q: %w", args[1], err)
				}
				return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
					episode, err := store.FindEpisode(cmd.Context(), args[0], number)
					if err != nil {
						return err
					}
					if episode == nil {
						return fmt.Errorf("%s episode %d is not queued", args[0], number)
					}
					printEpisode(cmd, episode)
					return nil
				})
			}
			return ctx.withStore(func(_ *config.Config, store *queue.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Total", "Processed", "Pending", "Failing", "In progress"},
					[][]string{{
						strconv.Itoa(stats.Total),
						strconv.Itoa(stats.Processed),
						strconv.Itoa(stats.Pending),
						strconv.Itoa(stats.Failing),
						strconv.Itoa(stats.Claimed),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}

func printEpisode(cmd *cobra.Command, ep *queue.Episode) {
	rows := [][]string{
		{"ID", strconv.FormatInt(ep.ID, 10)},
		{"Episode", ep.Label()},
		{"State", episodeState(ep, time.Now())},
		{"Attempts", strconv.Itoa(ep.Attempts)},
		{"Source", ep.SourceURL},
	}
	optional := [][2]string{
		{"Channel", ep.PublishChannel},
		{"Storage", ep.StorageBackend},
		{"Reference", ep.PublishedReference},
		{"Last error", ep.LastError},
	}
	for _, row := range optional {
		if strings.TrimSpace(row[1]) != "" {
			rows = append(rows, []string{row[0], row[1]})
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncateCell(value string, limit int) string {
	value = strings.ReplaceAll(strings.TrimSpace(value), "\n", " ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
