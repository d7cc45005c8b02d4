package preflight

import (
	"context"

	"github.com/samber/lo"

	"reelpost/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

type check struct {
	applies func(*config.Config) bool
	run     func(context.Context, *config.Config) Result
}

func always(*config.Config) bool { return true }

func directory(name string, path func(*config.Config) string) func(context.Context, *config.Config) Result {
	return func(_ context.Context, cfg *config.Config) Result {
		return CheckDirectoryAccess(name, path(cfg))
	}
}

var checks = []check{
	{always, directory("Work directory", func(c *config.Config) string { return c.Paths.WorkDir })},
	{always, directory("Data directory", func(c *config.Config) string { return c.Paths.DataDir })},
	{always, directory("Log directory", func(c *config.Config) string { return c.Paths.LogDir })},
	{
		func(c *config.Config) bool { return c.StorageEnabled("local") },
		directory("Local storage", func(c *config.Config) string { return c.Storage.Local.Dir }),
	},
	{
		func(c *config.Config) bool { return c.StorageEnabled("telegram") || c.Publish.Target == "telegram" },
		func(ctx context.Context, c *config.Config) Result {
			return CheckTelegram(ctx, c.Telegram.APIURL, c.Telegram.BotToken)
		},
	},
}

// RunAll executes the checks that apply to cfg, in a fixed order.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result
	for _, c := range checks {
		if c.applies(cfg) {
			results = append(results, c.run(ctx, cfg))
		}
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	return lo.Reject(results, func(r Result, _ int) bool { return r.Passed })
}
