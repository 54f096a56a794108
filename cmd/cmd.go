// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// serveCommand runs the web front-end.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the jukebox web server",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the login page in the default browser once listening",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overriding server.host and server.port",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations for configuration and database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write the example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand inspects and maintains the host credential.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the host's Spotify credential",
		Commands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show the stored credential's state",
				Flags: []cli.Flag{
					configFlag(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Refresh the stored credential now",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthRefresh,
			},
			{
				Name:   "logout",
				Usage:  "Delete the stored credential",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogout,
			},
		},
	}
}

// historyCommand lists successful queue adds.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent queue requests",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of requests to show (0 for all)",
				Value:   20,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: " + strings.Join(formatter.Formats, ", "),
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
		},
		Action: r.History,
	}
}

// cooldownCommand inspects and maintains the cooldown store.
func cooldownCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cooldown",
		Usage: "Inspect visitor cooldowns",
		Commands: []*cli.Command{
			{
				Name:  "check",
				Usage: "Show how long a visitor must wait before adding again",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user_id"},
				},
				Flags:  []cli.Flag{configFlag()},
				Action: r.CooldownCheck,
			},
			{
				Name:   "prune",
				Usage:  "Delete expired cooldown records from the SQLite backend",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CooldownPrune,
			},
		},
	}
}
