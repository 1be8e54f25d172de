package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Daisen-Tanaka/line-things-dev-board/internal/config"
	"github.com/Daisen-Tanaka/line-things-dev-board/internal/ui"
)

var configForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configNicknameCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the configuration file",
	Long: `Inspect and edit the configuration file.

The file holds the board UUIDs, the values written to a board when it
connects, scan settings and device nicknames.`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ResolvePath(configPath)
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the effective configuration as YAML, with defaults filled in
for anything the file leaves out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateDefaultConfig(configPath, configForce)
		if err != nil {
			return err
		}
		ui.NewPrinter(os.Stdout).PrintSuccess("Config written", ui.Param{Key: "Path", Value: path})
		return nil
	},
}

var configNicknameCmd = &cobra.Command{
	Use:   "nickname <address> [name]",
	Short: "Set or clear a device nickname",
	Long: `Set the nickname shown for a device in lists and cards. Omit the
name to clear it.`,
	Example: `  things-notify config nickname E4:5F:01:AA:BB:CC desk
  things-notify config nickname E4:5F:01:AA:BB:CC`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}

		id, name := args[0], ""
		if len(args) == 2 {
			name = args[1]
		}
		cfg.SetDeviceNickname(id, name)
		if err := cfg.Save(configPath); err != nil {
			return err
		}

		printer := ui.NewPrinter(os.Stdout)
		if name == "" {
			printer.PrintSuccess("Nickname cleared", ui.Param{Key: "Device", Value: id})
		} else {
			printer.PrintSuccess("Nickname set", ui.Param{Key: "Device", Value: id}, ui.Param{Key: "Nickname", Value: name})
		}
		return nil
	},
}
