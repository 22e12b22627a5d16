// 指示: miu200521358
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miu200521358/mu_rigbake/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rigbake/pkg/infra/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: messages.CommandConfigShort,
	}

	initCmd := &cobra.Command{
		Use:         "init [path]",
		Short:       messages.CommandConfigInit,
		Args:        cobra.MaximumNArgs(1),
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ctx.configFlag
			if len(args) == 1 {
				target = args[0]
			}
			var (
				path string
				err  error
			)
			if target == "" {
				path, err = config.DefaultConfigPath()
			} else {
				path, err = config.ExpandPath(target)
			}
			if err != nil {
				return err
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(ctx.out, messages.MessageConfigCreated+"\n", path)
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: messages.CommandConfigShow,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(ctx.out, messages.MessageConfigPath+"\n", ctx.configPath, ctx.configExists)
			return nil
		},
	}

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}
