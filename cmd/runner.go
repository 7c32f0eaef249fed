package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/cmx/internal/registry"
	"github.com/desertthunder/cmx/internal/shared"
	"github.com/desertthunder/cmx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	copper     registry.ContactService
	mailchimp  registry.MemberService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Copper     registry.ContactService
	Mailchimp  registry.MemberService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		copper:     opts.Copper,
		mailchimp:  opts.Mailchimp,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to a file logger while a TUI owns
// the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, syncCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireServices errors out before any command action that needs both
// registries configured.
func (r *Runner) requireServices() error {
	if r.copper == nil {
		return fmt.Errorf("%w: Copper service not initialized (check copper credentials in config.toml)", shared.ErrServiceUnavailable)
	}
	if r.mailchimp == nil {
		return fmt.Errorf("%w: Mailchimp service not initialized (check mailchimp credentials in config.toml)", shared.ErrServiceUnavailable)
	}
	return nil
}

// buildEngine constructs a sync engine scoped to one command invocation.
func (r *Runner) buildEngine(domain string, decider tasks.DecisionProvider) *tasks.ContactEngine {
	return tasks.NewContactEngine(r.copper, r.mailchimp, tasks.EngineOpts{
		TargetDomain:      domain,
		CopperPageSize:    r.config.Sync.CopperPageSize,
		MailchimpPageSize: r.config.Sync.MailchimpPageSize,
		TagMaxLength:      r.config.Sync.TagMaxLength,
		Decider:           decider,
		Logger:            r.logger,
	})
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
