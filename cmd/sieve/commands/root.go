// Package commands implements the CLI commands for sieve.
package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.trai.ch/sieve/internal/app"
	"go.trai.ch/sieve/internal/build"
	"go.trai.ch/sieve/internal/core/domain"
)

// Settings keys shared by flags and SIEVE_* environment variables.
const (
	keyDir      = "dir"
	keyJSON     = "json"
	keyLogLevel = "log-level"
	keyLogJSON  = "log-json"
	keyColor    = "color"
)

// CLI represents the command line interface for sieve.
type CLI struct {
	app      Application
	settings *viper.Viper
	rootCmd  *cobra.Command
	log      jsonLogger
}

// Application represents the application logic interface.
type Application interface {
	Analyze(ctx context.Context, opts app.Options) (*domain.Report, error)
	Watch(ctx context.Context, opts app.Options, onReport app.ReportFunc) error
	Dependants(ctx context.Context, opts app.Options, file string) ([]domain.ResolvedURL, error)
	Query(ctx context.Context, opts app.Options, kind string) ([]domain.IndexedFeature, error)
	Clean(ctx context.Context, opts app.Options) error
}

// jsonLogger is implemented by loggers that can switch to JSON lines.
type jsonLogger interface {
	SetJSON(enable bool)
}

// Option configures a CLI.
type Option func(*CLI)

// WithLogger lets --log-json switch log to JSON output.
func WithLogger(log any) Option {
	return func(c *CLI) {
		if l, ok := log.(jsonLogger); ok {
			c.log = l
		}
	}
}

// New creates a new CLI instance with the given app.
func New(a Application, opts ...Option) *CLI {
	settings := viper.New()
	settings.SetEnvPrefix("SIEVE")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "sieve",
		Short:         "Incremental static analysis for HTML, JavaScript and CSS",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate("{{.Name}} version {{.Version}}\n")
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP(keyDir, "C", ".", "Directory to start looking for sieve.yaml in")
	flags.Bool(keyJSON, false, "Print results as JSON")
	flags.String(keyLogLevel, "", "Log level: debug, info, warn or error (default from sieve.yaml)")
	flags.Bool(keyLogJSON, false, "Write logs as JSON lines")
	flags.String(keyColor, "auto", "Color output: auto, always or never")
	for _, key := range []string{keyDir, keyJSON, keyLogLevel, keyLogJSON, keyColor} {
		_ = settings.BindPFlag(key, flags.Lookup(key))
	}

	c := &CLI{
		app:      a,
		settings: settings,
		rootCmd:  rootCmd,
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		if c.log != nil {
			c.log.SetJSON(settings.GetBool(keyLogJSON))
		}
	}

	rootCmd.AddCommand(c.newAnalyzeCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newDepsCmd())
	rootCmd.AddCommand(c.newQueryCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// options returns the app options shared by every command.
func (c *CLI) options() app.Options {
	return app.Options{
		Dir:      c.settings.GetString(keyDir),
		LogLevel: c.settings.GetString(keyLogLevel),
	}
}

func (c *CLI) jsonOutput() bool {
	return c.settings.GetBool(keyJSON)
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
