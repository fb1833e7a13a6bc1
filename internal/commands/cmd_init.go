package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	initcmd "github.com/colonyops/marginalia/internal/commands/init"
	"github.com/colonyops/marginalia/internal/core/config"
)

type InitCmd struct {
	flags   *Flags
	yes     bool
	force   bool
	mode    string
	url     string
	token   string
	library string
}

func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Initialize marginalia configuration with an interactive wizard",
		UsageText: "marginalia init [options]",
		Description: `Sets up marginalia for first-time use with an interactive wizard.

The wizard asks where books come from (a workbench server or a local
directory of Markdown files) and writes ~/.config/marginalia/config.yaml.

Use --yes to accept all defaults without prompts.
Use --force to overwrite existing configuration.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "yes",
				Aliases:     []string{"y"},
				Usage:       "accept defaults without prompting",
				Destination: &cmd.yes,
			},
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite existing configuration",
				Destination: &cmd.force,
			},
			&cli.StringFlag{
				Name:        "mode",
				Usage:       "backend mode (remote, local)",
				Destination: &cmd.mode,
				Validator: func(s string) error {
					if !config.Mode(s).IsValid() {
						return cli.Exit("mode must be remote or local", 1)
					}
					return nil
				},
			},
			&cli.StringFlag{
				Name:        "url",
				Usage:       "workbench server URL",
				Destination: &cmd.url,
			},
			&cli.StringFlag{
				Name:        "token",
				Usage:       "API token",
				Sources:     cli.EnvVars("MARGINALIA_TOKEN"),
				Destination: &cmd.token,
			},
			&cli.StringFlag{
				Name:        "library",
				Usage:       "directory of Markdown books (implies --mode local)",
				Destination: &cmd.library,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(ctx context.Context, c *cli.Command) error {
	wizard := initcmd.NewWizard(initcmd.WizardOptions{
		ConfigPath: cmd.flags.ConfigPath,
		DataDir:    cmd.flags.DataDir,
		Yes:        cmd.yes,
		Force:      cmd.force,
		Mode:       config.Mode(cmd.mode),
		URL:        cmd.url,
		Token:      cmd.token,
		Library:    cmd.library,
	})
	return wizard.Run(ctx)
}
