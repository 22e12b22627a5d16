// 指示: miu200521358
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <kind|all> <joint>...",
		Short: messages.CommandRemoveShort,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := ctx.usecase()
			var kind model.OperationKind
			if !strings.EqualFold(strings.TrimSpace(args[0]), "all") {
				parsed, err := parseKind(uc.Registry(), args[0])
				if err != nil {
					return err
				}
				kind = parsed
			}
			sc, err := ctx.loadScene(uc)
			if err != nil {
				return err
			}
			skeleton, err := ctx.resolveSkeleton(sc)
			if err != nil {
				return err
			}

			result, problems := uc.Remove(sc, minteractor.RemoveRequest{
				Kind:             kind,
				Skeleton:         skeleton.Name,
				Joints:           args[1:],
				ProgressReporter: progressReporter{},
			})
			ctx.printProblems(problems)
			fmt.Fprintf(ctx.out, messages.MessageRemoved+"\n", len(result.Entries), len(result.Joints))
			return ctx.saveScene(uc, sc)
		},
	}
}
