// 指示: miu200521358
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

func newCenterOfMassCommand(ctx *commandContext) *cobra.Command {
	var (
		add     []string
		remove  []string
		weights []string
	)
	cmd := &cobra.Command{
		Use:   "com <center-joint>",
		Short: messages.CommandComShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseWeights(weights)
			if err != nil {
				return err
			}
			uc := ctx.usecase()
			sc, err := ctx.loadScene(uc)
			if err != nil {
				return err
			}
			skeleton, err := ctx.resolveSkeleton(sc)
			if err != nil {
				return err
			}
			problems, err := uc.UpdateCenterOfMass(sc, minteractor.CenterOfMassUpdate{
				Skeleton: skeleton.Name,
				Joint:    args[0],
				Add:      add,
				Remove:   remove,
				Weights:  parsed,
			})
			if err != nil {
				return err
			}
			ctx.printProblems(problems)
			fmt.Fprintf(ctx.out, messages.MessageComUpdated+"\n", args[0])
			return ctx.saveScene(uc, sc)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&add, "add", nil, "追加する関節")
	f.StringSliceVar(&remove, "remove", nil, "取り除く関節")
	f.StringArrayVar(&weights, "weight", nil, "追加関節の重み 関節名=値")
	return cmd
}
