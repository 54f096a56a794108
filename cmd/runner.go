package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/auth"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	provider   services.Provider
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	palette    *ui.Palette
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Config and Provider are normally built per command from the --config file; setting them skips that step.
type RunnerOpts struct {
	Config     *shared.Config
	Provider   services.Provider
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Clock      func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Runner{
		config:     opts.Config,
		provider:   opts.Provider,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    ui.Styles,
		now:        opts.Clock,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, authCommand, historyCommand, cooldownCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig reads the file named by --config, falling back to the embedded defaults when it does not exist, then
// applies .env and JUKEBOX_* overrides and the configured log level.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	if r.config != nil {
		return r.config, nil
	}

	if err := shared.LoadEnv(); err != nil {
		return nil, err
	}

	path := cmd.String("config")
	config, err := shared.LoadConfig(path)
	if err != nil {
		if !errors.Is(err, shared.ErrMissingConfig) {
			return nil, err
		}
		r.logger.Warn("config file not found, using defaults", "path", path)
		config = shared.DefaultConfig()
	}

	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := shared.SetLogLevel(r.logger, config.Log.Level); err != nil {
		return nil, err
	}

	r.config = config
	return config, nil
}

// spotify returns the injected provider or builds the Spotify client from config.
func (r *Runner) spotify(config *shared.Config) (services.Provider, error) {
	if r.provider != nil {
		return r.provider, nil
	}

	spotify := config.Credentials.Spotify
	svc, err := services.NewSpotifyService(services.SpotifyOpts{
		ClientID:     spotify.ClientID,
		ClientSecret: spotify.ClientSecret,
		RedirectURI:  spotify.RedirectURI,
		RateLimit:    spotify.RateLimit,
		Burst:        spotify.Burst,
		HTTPClient:   r.httpClient,
		Logger:       r.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify service: %w", err)
	}

	r.provider = svc
	return svc, nil
}

// manager builds the credential lifecycle manager over the configured token file.
func (r *Runner) manager(config *shared.Config, refresher auth.Refresher) (*auth.Manager, *auth.FileStore) {
	store := auth.NewFileStore(config.Tokens.Path)
	return auth.NewManager(auth.ManagerOpts{
		Refresher: refresher,
		Store:     store,
		Clock:     r.now,
		Logger:    r.logger,
	}), store
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
