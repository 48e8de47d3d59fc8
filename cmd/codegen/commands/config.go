package commands

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/teranos/codegen/config"
	"github.com/teranos/codegen/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create codegen configuration",
		Long: `Show or create codegen configuration.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (CODEGEN_* prefix, e.g. CODEGEN_GENERATE_HASH_OUTPUT)
3. Project config (nearest codegen.toml)
4. User config (~/.codegen/config.toml)
5. System config (/etc/codegen/config.toml)
6. Default values`,
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		format     string
		sources    bool
		configFile string
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the merged configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if sources {
				data := pterm.TableData{{"KEY", "VALUE", "SOURCE", "FROM"}}
				for _, s := range loaded.Settings() {
					data = append(data, []string{s.Key, fmt.Sprint(s.Value), string(s.Source), s.Path})
				}
				table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
				if err != nil {
					return errors.Wrap(err, "failed to render settings")
				}
				fmt.Fprintln(out, table)
				return nil
			}

			data, err := config.Marshal(loaded.Config, format)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "# codegen configuration\n%s", data)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "toml", "Output format: toml, yaml")
	cmd.Flags().BoolVar(&sources, "sources", false, "List every setting with the source it came from")
	cmd.Flags().StringVar(&configFile, "config", "", "Read configuration from FILE only")
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [FILE]",
		Short: "Write the default configuration to FILE (default ./codegen.toml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ProjectFileName
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.WithHint(
					errors.NewUsageError("%s already exists", path),
					"use --force to overwrite it; the old file is kept as .back1")
			}
			if err := config.Save(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}
