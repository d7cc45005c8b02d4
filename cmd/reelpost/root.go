package main

import (
	"github.com/spf13/cobra"
)

const (
	groupPipeline  = "pipeline"
	groupCatalogue = "catalogue"
	groupAdmin     = "admin"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "reelpost",
		Short:         "Episode acquisition, transcode and publishing pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddGroup(
		&cobra.Group{ID: groupPipeline, Title: "Pipeline:"},
		&cobra.Group{ID: groupCatalogue, Title: "Episodes and sites:"},
		&cobra.Group{ID: groupAdmin, Title: "Setup and diagnostics:"},
	)
	addGrouped(rootCmd, groupPipeline, newRunCommand(ctx), newPassCommand(ctx))
	addGrouped(rootCmd, groupCatalogue,
		newEpisodeCommand(ctx),
		newUploadCommand(ctx),
		newSiteCredCommand(ctx),
		newAllowCommand(ctx),
		newAdaptersCommand(ctx),
	)
	addGrouped(rootCmd, groupAdmin,
		newConfigCommand(ctx),
		newDepsCommand(ctx),
		newTestNotifyCommand(ctx),
		newLogsCommand(ctx),
	)

	return rootCmd
}

func addGrouped(parent *cobra.Command, group string, cmds ...*cobra.Command) {
	for _, cmd := range cmds {
		cmd.GroupID = group
		parent.AddCommand(cmd)
	}
}
