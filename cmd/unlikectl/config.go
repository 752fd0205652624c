package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/xpzouying/instagram-unlike/unlike"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "查看和修改运行配置",
	}
	cmd.AddCommand(
		newConfigShowCmd(a),
		newConfigExportCmd(a),
		newConfigImportCmd(a),
		newConfigPresetCmd(a),
	)
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "显示保存的配置和实际生效的配置",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.configs.Load(cmd.Context())
			out := map[string]any{
				"preset":    unlike.DetectPreset(cfg),
				"config":    cfg,
				"effective": cfg.Effective(),
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "导出配置，不指定文件时输出到标准输出",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := unlike.Export(a.configs.Load(cmd.Context()))
			if err != nil {
				return err
			}
			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.WriteFile(args[0], data, 0o600); err != nil {
				return errors.Wrap(err, "write config file")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration exported to %s\n", args[0])
			return nil
		},
	}
}

func newConfigImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "从文件导入配置",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "read config file")
			}
			cfg, err := unlike.Import(data)
			if err != nil {
				return err
			}
			saved, err := a.configs.Save(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration imported (preset: %s)\n", unlike.DetectPreset(saved))
			return nil
		},
	}
}

func newConfigPresetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "preset <name>",
		Short:     "应用预设：" + strings.Join(unlike.PresetNames(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: unlike.PresetNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.configs.ApplyPreset(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied preset %s\n", args[0])
			return nil
		},
	}
}
