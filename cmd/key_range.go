// 指示: miu200521358
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

func newKeyRangeCommand(ctx *commandContext) *cobra.Command {
	var (
		start         float64
		end           float64
		step          float64
		location      bool
		rotation      bool
		scale         bool
		availableOnly bool
	)
	cmd := &cobra.Command{
		Use:   "key-range <joint>...",
		Short: messages.CommandKeyRange,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := ctx.currentConfig().KeyRange
			changed := cmd.Flags().Changed
			if !changed("start") {
				start = defaults.Start
			}
			if !changed("end") {
				end = defaults.End
			}
			if !changed("step") {
				step = defaults.Step
			}
			if !changed("location") {
				location = defaults.Location
			}
			if !changed("rotation") {
				rotation = defaults.Rotation
			}
			if !changed("scale") {
				scale = defaults.Scale
			}
			if !changed("available-only") {
				availableOnly = defaults.AvailableOnly
			}
			selection := defaults
			selection.Location, selection.Rotation, selection.Scale = location, rotation, scale

			uc := ctx.usecase()
			sc, err := ctx.loadScene(uc)
			if err != nil {
				return err
			}
			skeleton, err := ctx.resolveSkeleton(sc)
			if err != nil {
				return err
			}
			result, problems := uc.KeyRange(sc, minteractor.KeyRangeRequest{
				Skeleton:      skeleton.Name,
				Joints:        args,
				Start:         start,
				End:           end,
				Step:          step,
				Mask:          selection.Mask(),
				AvailableOnly: availableOnly,
			})
			ctx.printProblems(problems)
			fmt.Fprintf(ctx.out, messages.MessageKeyRangeDone+"\n", result)
			return ctx.saveScene(uc, sc)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&start, "start", 0, "開始フレーム")
	f.Float64Var(&end, "end", 0, "終了フレーム (含む)")
	f.Float64Var(&step, "step", 0, "キー打ち間隔")
	f.BoolVar(&location, "location", true, "位置をキー打ちする")
	f.BoolVar(&rotation, "rotation", true, "回転をキー打ちする")
	f.BoolVar(&scale, "scale", true, "スケールをキー打ちする")
	f.BoolVar(&availableOnly, "available-only", false, "既存チャンネルのみキー打ちする")
	return cmd
}
