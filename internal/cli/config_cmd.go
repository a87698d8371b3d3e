package cli

import (
	"fmt"

	"github.com/alexanderramin/coursechat/internal/cli/formatter"
	"github.com/alexanderramin/coursechat/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration file",
	}
	cmd.AddCommand(newConfigInitCmd(app), newConfigShowCmd(app), newConfigPathCmd(app))
	return cmd
}

func newConfigInitCmd(app *App) *cobra.Command {
	var (
		force bool
		path  string
	)
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationWire: wireNone},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				path = app.configPath
			}
			if path == "" {
				path = config.DefaultPath()
			}
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s\n", formatter.StyleGreen.Render("✔"), path)
			fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Set "+config.APIKeyEnv+" or llm.api_key before chatting."))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&path, "path", "", "where to write (default the --config path)")
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration with secrets masked",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationWire: wireConfig},
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Encode(app.Config.Masked())
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the config file location",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationWire: wireNone},
		Run: func(cmd *cobra.Command, _ []string) {
			path := app.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
		},
	}
}
