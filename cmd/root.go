// 指示: miu200521358
package main

import (
	"github.com/spf13/cobra"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
)

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mu_rigbake",
		Short:         messages.CommandRootShort,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConfig(cmd) {
				return nil
			}
			return ctx.ensureConfig()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&ctx.configFlag, "config", "c", "", messages.FlagConfigUsage)
	flags.StringVarP(&ctx.sceneFlag, "scene", "s", "", messages.FlagSceneUsage)
	flags.StringVarP(&ctx.outFlag, "out", "o", "", messages.FlagOutUsage)
	flags.StringVar(&ctx.skeletonFlag, "skeleton", "", messages.FlagSkeletonUsage)
	flags.StringVar(&ctx.logLevelFlag, "log-level", "", messages.FlagLogLevelUsage)
	flags.StringSliceVar(&ctx.verboseFlags, "verbose", nil, messages.FlagVerboseUsage)

	rootCmd.AddCommand(
		newImportCommand(ctx),
		newApplyCommand(ctx),
		newRemoveCommand(ctx),
		newStateCommand(ctx),
		newKeyRangeCommand(ctx),
		newBakeCommand(ctx),
		newCenterOfMassCommand(ctx),
		newInspectCommand(ctx),
		newKindsCommand(ctx),
		newConfigCommand(ctx),
	)
	return rootCmd
}

// skipConfig は設定ファイルを読まずに実行するコマンドか判定する。
func skipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfig"] == "true" {
			return true
		}
	}
	return false
}
