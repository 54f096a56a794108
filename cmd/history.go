package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/urfave/cli/v3"
)

// History lists recent queue requests, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	limit := cmd.Int("limit")
	format := cmd.String("format")
	output := cmd.String("output")

	repos, db, err := repositories.Open(ctx, config.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	reqs, err := repos.Requests.List(ctx, limit)
	if err != nil {
		return err
	}
	r.logger.Debug("loaded queue history", "count", len(reqs), "limit", limit)

	if output != "" {
		if err := formatter.WriteExport(format, reqs, output); err != nil {
			return err
		}
		return r.writePlain("%s\n", r.palette.OK(fmt.Sprintf("Wrote %d requests to %s", len(reqs), output)))
	}

	data, err := formatter.Export(format, reqs)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
