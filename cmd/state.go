// 指示: miu200521358
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rigbake/pkg/infra/config"
)

func newStateCommand(ctx *commandContext) *cobra.Command {
	stateCmd := &cobra.Command{
		Use:   "state",
		Short: messages.CommandStateShort,
	}
	stateCmd.AddCommand(newStateSaveCommand(ctx), newStateLoadCommand(ctx))
	return stateCmd
}

func newStateSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "save <path>",
		Short: messages.CommandStateSave,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := ctx.usecase()
			sc, err := ctx.loadScene(uc)
			if err != nil {
				return err
			}
			skeleton, err := ctx.resolveSkeleton(sc)
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if err := uc.SaveStateFile(nil, path, sc, skeleton.Name); err != nil {
				return err
			}
			fmt.Fprintf(ctx.out, messages.MessageStateSaved+"\n", path)
			return nil
		},
	}
}

func newStateLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load <path>",
		Short: messages.CommandStateLoad,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := ctx.usecase()
			sc, err := ctx.loadScene(uc)
			if err != nil {
				return err
			}
			skeleton, err := ctx.resolveSkeleton(sc)
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			result, problems, err := uc.LoadStateFile(nil, path, sc, skeleton.Name, progressReporter{})
			if err != nil {
				return err
			}
			ctx.printProblems(problems)
			fmt.Fprintf(ctx.out, messages.MessageStateLoaded+"\n", len(result.Replayed), len(result.Skipped), result.States)
			return ctx.saveScene(uc, sc)
		},
	}
}
