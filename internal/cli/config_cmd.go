package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageErr("usage: tada config <init|show>")
		},
	}
	cmd.AddCommand(newConfigInitCmd(app))
	cmd.AddCommand(newConfigShowCmd(app))
	return cmd
}

func newConfigInitCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file (the --config path, or the global one)",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.ConfigPath
			if path == "" {
				path = config.GlobalPath(app.env)
			}
			if path == "" {
				return errors.New("cannot determine a config location; pass --config")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return usageErr("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.DefaultConfig()
			if app.APIURL != "" {
				cfg.APIURL = app.APIURL
			}
			cfg.OwnerID = app.OwnerID
			if err := config.Write(path, cfg); err != nil {
				return err
			}
			say(cmd.OutOrStdout(), toneOK, "wrote "+path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, ti, err := app.settings()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			b, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w, string(b))
			if cfg.Sources.Global != "" {
				hint(w, "global: "+cfg.Sources.Global)
			}
			if cfg.Sources.Explicit != "" {
				hint(w, "config: "+cfg.Sources.Explicit)
			}
			if ti != nil {
				hint(w, "token: "+ti.Source)
			}
			if err := cfg.Validate(); err != nil {
				say(w, toneWarn, err.Error())
			}
			return nil
		},
	}
}
