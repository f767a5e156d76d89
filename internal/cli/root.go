package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/restclient/internal/config"
	"github.com/samvad-hq/restclient/internal/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// Options carries what the commands need from main.
type Options struct {
	Config  *config.Config
	Log     logger.Logger
	Out     io.Writer
	Err     io.Writer
	NoColor bool
}

type environment struct {
	cfg *config.Config
	log logger.Logger
	out io.Writer
	err io.Writer
}

// SetVersion sets the version info reported by --version.
func SetVersion(v, bt string) {
	version = v
	buildTime = bt
}

// NewRootCommand builds the restclient command tree.
func NewRootCommand(opts Options) *cobra.Command {
	env := &environment{
		cfg: opts.Config,
		log: logger.Ensure(opts.Log),
		out: opts.Out,
		err: opts.Err,
	}
	if env.cfg == nil {
		env.cfg = &config.Config{JournalType: "none"}
	}
	if env.out == nil {
		env.out = os.Stdout
	}
	if env.err == nil {
		env.err = os.Stderr
	}
	if opts.NoColor {
		color.NoColor = true
	}

	root := &cobra.Command{
		Use:   "restclient",
		Short: "Send HTTP requests and classify their replies",
		Long: `restclient sends GET, POST, PUT and DELETE requests, classifies the
reply status and reports timeouts separately from other failures.

Examples:
  restclient get https://api.example.com/items -q page=2
  restclient post https://api.example.com/items -d '{"name":"x"}'
  restclient put https://api.example.com/upload --multipart -F doc=@./a.pdf
  restclient run                 Execute the requests file
  restclient history -n 20       Show the latest journaled exchanges
  restclient status 404          Explain a status code`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(env.out)
	root.SetErr(env.err)
	root.PersistentFlags().Bool("no-color", opts.NoColor, "Disable colored output")
	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if off, _ := cmd.Flags().GetBool("no-color"); off {
			color.NoColor = true
		}
	}

	for _, verb := range []string{"get", "post", "put", "delete"} {
		root.AddCommand(newRequestCommand(env, verb))
	}
	root.AddCommand(newRunCommand(env))
	root.AddCommand(newHistoryCommand(env))
	root.AddCommand(newStatusCommand(env))
	return root
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, opts Options, args []string) int {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(root.ErrOrStderr(), failStyle("error:"), exitErr.Err)
		}
		return exitErr.Code
	}
	// flag and argument errors raised by cobra itself
	fmt.Fprintln(root.ErrOrStderr(), failStyle("error:"), err)
	return ExitUsage
}
