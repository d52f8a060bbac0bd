// Command focus drives the focus core from a terminal. It opens the same
// stores as the server and authenticates every call with a bearer token.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/internal/bootstrap"
	"github.com/fastygo/focus/internal/config"
	"github.com/fastygo/focus/pkg/logger"
	"github.com/fastygo/focus/usecase/gate"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "focus:", err)
		os.Exit(exitCode(err))
	}
}

type cli struct {
	token   string
	output  string
	timeout time.Duration
	verbose bool
	out     io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:           "focus",
		Short:         "Focus sessions, tasks and streaks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			switch c.output {
			case outputText, outputJSON, outputYAML:
				return nil
			}
			return domain.Invalid("unknown output format %q", c.output)
		},
	}
	root.SetOut(out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return domain.WrapError(domain.ErrCodeInvalid, err.Error(), err)
	})

	flags := root.PersistentFlags()
	flags.StringVar(&c.token, "token", os.Getenv("FOCUS_TOKEN"), "access token (default $FOCUS_TOKEN)")
	flags.StringVarP(&c.output, "output", "o", outputText, "output format: text|json|yaml")
	flags.DurationVar(&c.timeout, "timeout", 0, "operation timeout (default CLI_TIMEOUT)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log to stderr at debug level")

	root.AddCommand(
		c.newSignUpCmd(),
		c.newSignInCmd(),
		c.newSignOutCmd(),
		c.newRefreshCmd(),
		c.newWhoAmICmd(),
		c.newProfileCmd(),
		c.newTaskCmd(),
		c.newSessionCmd(),
		c.newProofCmd(),
		c.newStreakCmd(),
	)
	return root
}

// withApp boots the core for one operation and renders its result.
func (c *cli) withApp(fn func(ctx context.Context, app *bootstrap.App) (interface{}, error)) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	level := "warn"
	if c.verbose {
		level = "debug"
	}
	zapLogger, err := logger.New(logger.Config{Level: level, Encoding: "console", Output: "stderr"})
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	timeout := c.timeout
	if timeout <= 0 {
		timeout = cfg.Context.CLITimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, zapLogger, bootstrap.Options{})
	if err != nil {
		if domain.IsRetryable(err) {
			return err
		}
		return domain.WrapError(domain.ErrCodeInternal, "open stores", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			zapLogger.Warn("shutdown", zap.Error(err))
		}
	}()

	result, err := fn(ctx, app)
	if err != nil {
		return err
	}
	return render(c.out, c.output, result)
}

func (c *cli) command(name string, payload interface{}) error {
	return c.withApp(func(ctx context.Context, app *bootstrap.App) (interface{}, error) {
		return app.Gate.ExecuteCommand(ctx, c.token, name, payload)
	})
}

func (c *cli) query(name string, params interface{}) error {
	return c.withApp(func(ctx context.Context, app *bootstrap.App) (interface{}, error) {
		return app.Gate.ExecuteQuery(ctx, c.token, name, params)
	})
}

// exactArgs reports argument count mistakes as validation errors.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return domain.Invalid("%s expects %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return domain.Invalid("%s expects at least %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func page(limit, offset int) gate.Page {
	return gate.Page{Limit: limit, Offset: offset}
}
