// 指示: miu200521358
package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/mmath"
	"github.com/miu200521358/mu_rigbake/pkg/usecase/minteractor"
)

// applyFlags は apply コマンドの操作パラメータを表す。
type applyFlags struct {
	target         string
	targetSkeleton string
	parentCopy     bool
	offset         string
	axis           string
	distance       float64
	stretch        bool
	chainLength    int
	pole           bool
	poleAxis       string
	stretchType    string
	copyKind       string
	influence      float64
	weights        []string
}

func newApplyCommand(ctx *commandContext) *cobra.Command {
	flags := &applyFlags{}
	cmd := &cobra.Command{
		Use:   "apply <kind> <joint>...",
		Short: messages.CommandApplyShort,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := ctx.usecase()
			kind, err := parseKind(uc.Registry(), args[0])
			if err != nil {
				return err
			}
			params, err := flags.params(cmd)
			if err != nil {
				return err
			}
			sc, err := ctx.loadScene(uc)
			if err != nil {
				return err
			}
			skeleton, err := ctx.resolveSkeleton(sc)
			if err != nil {
				return err
			}

			result, problems := uc.Apply(sc, minteractor.OperationRequest{
				Kind:             kind,
				Skeleton:         skeleton.Name,
				Joints:           args[1:],
				Params:           params,
				ProgressReporter: progressReporter{},
			})
			ctx.printProblems(problems)
			fmt.Fprintf(ctx.out, messages.MessageApplied+"\n", kind, len(result.Entries), len(result.Proxies))
			return ctx.saveScene(uc, sc)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.target, "target", "", "親または複製元の関節名")
	f.StringVar(&flags.targetSkeleton, "target-skeleton", "", "親または複製元の骨格名 (省略時は対象骨格)")
	f.BoolVar(&flags.parentCopy, "parent-copy", false, "親空間を現在姿勢の複製として作る")
	f.StringVar(&flags.offset, "offset", "", "オフセット位置 x,y,z")
	f.StringVar(&flags.axis, "axis", "", "注視軸 (X/Y/Z/-X/-Y/-Z)")
	f.Float64Var(&flags.distance, "distance", 0, "注視対象までの距離")
	f.BoolVar(&flags.stretch, "stretch", false, "注視対象へ伸縮させる")
	f.IntVar(&flags.chainLength, "chain-length", 0, "IK・回転分配のチェーン長")
	f.BoolVar(&flags.pole, "pole", true, "IKポールを作成する")
	f.StringVar(&flags.poleAxis, "pole-axis", "", "IKポールの軸")
	f.StringVar(&flags.stretchType, "stretch-type", "", "IK伸縮種別 (NONE/STRETCH)")
	f.StringVar(&flags.copyKind, "copy-kind", "", "単純コピーの種別 (transforms/location/rotation/scale)")
	f.Float64Var(&flags.influence, "influence", 1, "単純コピーの影響度")
	f.StringArrayVar(&flags.weights, "weight", nil, "重心の重み 関節名=値 (複数指定可)")
	return cmd
}

// params はフラグから操作パラメータを作る。未指定のフラグは既定値に任せる。
func (f *applyFlags) params(cmd *cobra.Command) (minteractor.OperationParams, error) {
	params := minteractor.OperationParams{
		TargetSkeleton: f.targetSkeleton,
		TargetJoint:    f.target,
		ParentCopy:     f.parentCopy,
		AimAxis:        f.axis,
		AimDistance:    f.distance,
		ChainLength:    f.chainLength,
		PoleAxis:       f.poleAxis,
		StretchType:    strings.ToUpper(strings.TrimSpace(f.stretchType)),
	}
	changed := cmd.Flags().Changed
	if changed("stretch") {
		params.AimStretch = &f.stretch
	}
	if changed("pole") {
		params.Pole = &f.pole
	}
	if changed("influence") {
		params.Influence = &f.influence
	}
	if f.offset != "" {
		offset, err := parseOffset(f.offset)
		if err != nil {
			return params, err
		}
		params.Offset = &offset
	}
	if f.copyKind != "" {
		kind, err := parseCopyKind(f.copyKind)
		if err != nil {
			return params, err
		}
		params.CopyKind = kind
	}
	if len(f.weights) > 0 {
		weights, err := parseWeights(f.weights)
		if err != nil {
			return params, err
		}
		params.Weights = weights
	}
	return params, nil
}

func parseOffset(value string) (mmath.Mat4, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return mmath.Mat4Identity(), fmt.Errorf(messages.MessageOffsetInvalid, value)
	}
	values := make([]float64, 3)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return mmath.Mat4Identity(), fmt.Errorf(messages.MessageOffsetInvalid, value)
		}
		values[i] = v
	}
	return mmath.NewMat4Translation(mmath.Vec3FromSlice(values)), nil
}

func parseCopyKind(value string) (constraint.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "transforms", "copy_transforms":
		return constraint.KindCopyTransforms, nil
	case "location", "copy_location":
		return constraint.KindCopyLocation, nil
	case "rotation", "copy_rotation":
		return constraint.KindCopyRotation, nil
	case "scale", "copy_scale":
		return constraint.KindCopyScale, nil
	default:
		return "", fmt.Errorf("単純コピーの種別が不正です: %s", value)
	}
}

func parseWeights(values []string) (map[string]float64, error) {
	weights := make(map[string]float64, len(values))
	for _, value := range values {
		name, raw, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf(messages.MessageWeightInvalid, value)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.Join(fmt.Errorf(messages.MessageWeightInvalid, value), err)
		}
		weights[strings.TrimSpace(name)] = weight
	}
	return weights, nil
}
