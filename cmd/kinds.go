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

// kindAliases はコマンドラインで使う操作種別の別名。
var kindAliases = map[string]model.OperationKind{
	"world":                 model.OperationWorldSpace,
	"parent":                model.OperationParentSpace,
	"parent-offset":         model.OperationParentOffsetSpace,
	"aim":                   model.OperationAimSpace,
	"aim-offset":            model.OperationAimOffsetSpace,
	"reverse":               model.OperationReverseHierarchy,
	"ik":                    model.OperationIKLimb,
	"ik-stretch":            model.OperationIKStretch,
	"rotation-distribution": model.OperationRotationDistribution,
	"distribution":          model.OperationRotationDistribution,
	"com":                   model.OperationCenterOfMass,
	"center-of-mass":        model.OperationCenterOfMass,
	"copy-transforms":       model.OperationSimpleCopyTransforms,
	"copy":                  model.OperationSimpleCopyTransforms,
}

// parseKind は別名または表示名から操作種別を解決する。
func parseKind(registry *minteractor.Registry, value string) (model.OperationKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if kind, ok := kindAliases[normalized]; ok {
		return kind, nil
	}
	for _, kind := range registry.Kinds() {
		if strings.EqualFold(string(kind), strings.TrimSpace(value)) {
			return kind, nil
		}
	}
	return "", fmt.Errorf(messages.MessageKindUnknown, value)
}

// aliasOf は種別の代表的な別名を返す。
func aliasOf(kind model.OperationKind) string {
	best := ""
	for alias, k := range kindAliases {
		if k == kind && (best == "" || len(alias) > len(best)) {
			best = alias
		}
	}
	return best
}

func newKindsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "kinds",
		Short:       messages.CommandKindsShort,
		Annotations: map[string]string{"skipConfig": "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := minteractor.NewRegistry()
			rows := make([][]string, 0)
			for _, kind := range registry.Kinds() {
				rows = append(rows, []string{string(kind), aliasOf(kind), kind.ProblemLabel()})
			}
			fmt.Fprint(ctx.out, renderTable(ctx.out, []string{messages.HeaderKind, messages.HeaderAlias, messages.HeaderRole}, rows, nil))
			return nil
		},
	}
}
