// 指示: miu200521358
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

func newBakeCommand(ctx *commandContext) *cobra.Command {
	var keepConstraints bool
	cmd := &cobra.Command{
		Use:   "bake <joint>...",
		Short: messages.CommandBakeShort,
		Args:  cobra.MinimumNArgs(1),
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

			targets := make([]minteractor.BakeTarget, 0, len(args))
			refs := make(map[constraint.JointRef]struct{}, len(args))
			for _, name := range args {
				ref := scene.Ref(skeleton, name)
				refs[ref] = struct{}{}
				targets = append(targets, minteractor.BakeTarget{
					Sink:    ref,
					Sources: []minteractor.BakeSource{minteractor.NewBakeSource(ref)},
				})
			}
			summary, problems := minteractor.Bake(sc, targets, minteractor.BakeOptions{
				SmartFrames:   sc.Settings.SmartFrames,
				SmartChannels: sc.Settings.SmartChannels,
			})
			if !keepConstraints {
				sc.Constraints.RemoveWhere(func(c *constraint.Constraint) bool {
					_, ok := refs[c.Owner]
					return ok && !c.EngineOwned
				})
			}
			ctx.printProblems(problems)
			fmt.Fprintf(ctx.out, messages.MessageBaked+"\n", summary.Clips, summary.Frames, summary.Channels)
			return ctx.saveScene(uc, sc)
		},
	}
	cmd.Flags().BoolVar(&keepConstraints, "keep-constraints", false, "ベイク後もユーザーのコンストレイントを残す")
	return cmd
}
