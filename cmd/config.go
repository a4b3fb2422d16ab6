package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/KaramelBytes/pandenem/internal/config"
	"github.com/KaramelBytes/pandenem/internal/utils"
)

var cfgInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set pandenem configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "input_pattern: %s\n", c.InputPattern)
		fmt.Fprintf(w, "input_encoding: %s\n", c.InputEncoding)
		fmt.Fprintf(w, "input_delimiter: %q\n", c.InputDelimiter)
		fmt.Fprintf(w, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(w, "output_pattern: %s\n", c.OutputPattern)
		fmt.Fprintf(w, "years: %v\n", c.Years)
		fmt.Fprintf(w, "chunk_rows: %d\n", c.ChunkRows)
		fmt.Fprintf(w, "on_invalid: %s\n", c.OnInvalid)
		fmt.Fprintf(w, "income_top_cap: %.0f\n", c.IncomeTopCap)
		fmt.Fprintf(w, "top_n: %d\n", c.TopN)
		fc := c.FilterConfig()
		fmt.Fprintf(w, "kept columns: %v\n", fc.KeptColumns())
		fmt.Fprintf(w, "output columns: %v\n", fc.OutputColumns())
		fmt.Fprintf(w, "rules: %d, exclusions: %d\n", len(fc.Rules), len(fc.Exclusions))
		fmt.Fprintf(w, "log_level: %s\n", c.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		if err := c.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Saved config\n", okMark("✓"))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the built-in rules spelled out",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			p, err := cfgpkg.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		if utils.FileExists(path) && !cfgInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		c := cfgpkg.Default()
		fc := c.FilterConfig()
		c.KeepColumns = fc.KeptColumns()
		c.Exclusions = fc.Exclusions
		c.Rules = fc.Rules
		c.DropAfter = fc.DropAfter
		if err := cfgpkg.Save(c, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", okMark("✓"), path)
		return nil
	},
}

var configDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(settings())
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configDumpCmd)
	configInitCmd.Flags().BoolVar(&cfgInitForce, "force", false, "overwrite an existing config file")
}
