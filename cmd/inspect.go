// 指示: miu200521358
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rigbake/pkg/domain/constraint"
	"github.com/miu200521358/mu_rigbake/pkg/domain/model"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: messages.CommandInspectShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := ctx.usecase()
			sc, err := ctx.loadScene(uc)
			if err != nil {
				return err
			}
			skeletons := sc.Skeletons()
			if strings.TrimSpace(ctx.skeletonFlag) != "" {
				skeleton, err := ctx.resolveSkeleton(sc)
				if err != nil {
					return err
				}
				skeletons = []*model.Skeleton{skeleton}
			}
			for _, skeleton := range skeletons {
				fmt.Fprintf(ctx.out, "%s: %s\n", messages.HeaderSkeleton, skeleton.Name)
				fmt.Fprint(ctx.out, renderJointTable(ctx, sc, skeleton))
				fmt.Fprint(ctx.out, renderEntryTable(ctx, skeleton))
			}
			fmt.Fprint(ctx.out, renderConstraintTable(ctx, sc))
			return nil
		},
	}
}

func renderJointTable(ctx *commandContext, sc *scene.Scene, skeleton *model.Skeleton) string {
	clip, hasClip := sc.Store.ActiveClip(skeleton.Name)
	rows := make([][]string, 0, skeleton.Len())
	for _, joint := range skeleton.Joints() {
		role := ""
		if tag, ok := skeleton.RoleOf(joint.Name); ok {
			role = string(tag.Kind)
		}
		keys := 0
		if hasClip {
			for _, channel := range clip.JointChannels(joint.Name) {
				keys += channel.Len()
			}
		}
		rows = append(rows, []string{
			joint.Name,
			joint.Parent,
			role,
			string(joint.RotationMode),
			strings.Join(joint.Display.Collections, ","),
			strconv.Itoa(keys),
		})
	}
	headers := []string{
		messages.HeaderJoint,
		messages.HeaderParent,
		messages.HeaderRole,
		messages.HeaderRotation,
		messages.HeaderCollections,
		messages.HeaderKeys,
	}
	return renderTable(ctx.out, headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight})
}

func renderEntryTable(ctx *commandContext, skeleton *model.Skeleton) string {
	entries := skeleton.State.Entries()
	if len(entries) == 0 {
		return messages.MessageNoEntries + "\n"
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []string{entry.Key, entry.Kind, strings.Join(entry.Joints, ",")})
	}
	return renderTable(ctx.out, []string{messages.HeaderEntryKey, messages.HeaderKind, messages.HeaderJoints}, rows, nil)
}

func renderConstraintTable(ctx *commandContext, sc *scene.Scene) string {
	constraints := sc.Constraints.All()
	if len(constraints) == 0 {
		return messages.MessageNoConstraints + "\n"
	}
	rows := make([][]string, 0, len(constraints))
	for _, c := range constraints {
		rows = append(rows, []string{
			string(c.Kind),
			formatRef(c.Owner),
			formatRef(c.Target),
			strconv.FormatFloat(c.Influence, 'f', 2, 64),
			strconv.FormatBool(c.EngineOwned),
		})
	}
	headers := []string{
		messages.HeaderKind,
		messages.HeaderOwner,
		messages.HeaderTarget,
		messages.HeaderInfluence,
		messages.HeaderEngineOwned,
	}
	return renderTable(ctx.out, headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
}

func formatRef(ref constraint.JointRef) string {
	if ref.IsZero() {
		return ""
	}
	return ref.Skeleton + "[" + ref.Joint + "]"
}
