// 指示: miu200521358
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rigbake/pkg/domain/scene"
	"github.com/miu200521358/mu_rigbake/pkg/infra/config"
)

// newImportCommand はモデルファイルの骨格をシーンへ追加するコマンドを返す。
// --scene が存在しなければ新しいシーンを作る。
func newImportCommand(ctx *commandContext) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <model>",
		Short: messages.CommandImportShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := ctx.usecase()
			if strings.TrimSpace(ctx.sceneFlag) == "" {
				return errors.New(messages.MessageSceneRequired)
			}
			scenePath, err := config.ExpandPath(ctx.sceneFlag)
			if err != nil {
				return err
			}
			var sc *scene.Scene
			if _, statErr := os.Stat(scenePath); statErr == nil {
				sc, err = ctx.loadScene(uc)
				if err != nil {
					return err
				}
			} else if errors.Is(statErr, os.ErrNotExist) {
				sc = scene.NewScene()
				sc.Settings = ctx.currentConfig().SceneSettings()
			} else {
				return statErr
			}

			modelPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			skeleton, err := uc.ImportSkeleton(nil, modelPath, sc, name)
			if err != nil {
				return err
			}
			fmt.Fprintf(ctx.out, messages.MessageImported+"\n", skeleton.Name, skeleton.Len())
			return ctx.saveScene(uc, sc)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "取り込む骨格名 (省略時はファイル名)")
	return cmd
}
