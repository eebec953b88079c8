// Package cli is the readlater command line. Each invocation performs one
// user action through the state services.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/Leopold1975/readlater/internal/pkg/config"
	"github.com/Leopold1975/readlater/internal/readlater/app"
	"github.com/Leopold1975/readlater/internal/readlater/cli/output"
	"github.com/Leopold1975/readlater/internal/readlater/services/authservice"
	"github.com/spf13/cobra"
)

var ErrNotLoggedIn = errors.New("not logged in, run `readlater login` first")

type runner struct {
	configPath   string
	jsonOut      bool
	colorMode    string
	passwordFile string

	appOpts []app.Option
	args    []string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer

	app *app.ReadLaterApp
	p   *output.Printer
}

type Option func(*runner)

// WithAppOptions passes opts to app.New on every invocation.
func WithAppOptions(opts ...app.Option) Option {
	return func(r *runner) { r.appOpts = append(r.appOpts, opts...) }
}

func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(r *runner) {
		r.stdin, r.stdout, r.stderr = in, out, errOut
	}
}

// WithArgs replaces os.Args[1:].
func WithArgs(args []string) Option {
	return func(r *runner) { r.args = args }
}

func NewRootCmd(opts ...Option) *cobra.Command {
	root, _ := newRoot(opts...)

	return root
}

func newRoot(opts ...Option) (*cobra.Command, *runner) {
	r := &runner{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr} //nolint:exhaustruct
	for _, opt := range opts {
		opt(r)
	}

	root := &cobra.Command{
		Use:   "readlater",
		Short: "Save web articles to read later",
		Long: `readlater talks to a read-it-later service: save links, tag them,
search them and read the extracted text.

Example usage:
  readlater login alice
  readlater save https://go.dev/blog/pipelines
  readlater tag 3 golang
  readlater search --tag golang`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: r.setup,
		PersistentPostRun: func(*cobra.Command, []string) { r.teardown() },
	}

	root.SetIn(r.stdin)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)

	if r.args != nil {
		root.SetArgs(r.args)
	}

	pf := root.PersistentFlags()
	pf.StringVar(&r.configPath, "config", "", "path to configuration file (environment only when empty)")
	pf.BoolVar(&r.jsonOut, "json", false, "print results as JSON")
	pf.StringVar(&r.colorMode, "color", "auto", "color output: auto, always or never")

	root.AddCommand(
		r.loginCmd(),
		r.registerCmd(),
		r.logoutCmd(),
		r.whoamiCmd(),
		r.listCmd(),
		r.showCmd(),
		r.saveCmd(),
		r.deleteCmd(),
		r.tagCmd(),
		r.untagCmd(),
		r.searchCmd(),
		r.tagsCmd(),
		r.watchCmd(),
	)

	return root, r
}

// Execute runs the command line and reports a failure on stderr.
func Execute(ctx context.Context, opts ...Option) int {
	root, r := newRoot(opts...)
	defer r.teardown()

	if err := root.ExecuteContext(ctx); err != nil {
		output.NewPrinter(root.OutOrStdout(), root.ErrOrStderr(), false).Error("%s", err.Error())

		return 1
	}

	return 0
}

func (r *runner) setup(cmd *cobra.Command, _ []string) error {
	mode, err := output.ParseColorMode(r.colorMode)
	if err != nil {
		return err
	}

	r.p = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ResolveColors(mode))

	cfg, err := config.New(r.configPath)
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg, r.appOpts...)
	if err != nil {
		return err
	}

	r.app = a

	return nil
}

func (r *runner) teardown() {
	if r.app != nil {
		r.app.Close()
		r.app = nil
	}
}

// requireAuth confirms the stored session with the server.
func (r *runner) requireAuth(ctx context.Context) error {
	r.app.Auth.Check(ctx)

	if r.app.Auth.State().Status != authservice.StatusAuthenticated {
		return ErrNotLoggedIn
	}

	return nil
}

// failure prefers the message the state layer surfaced for err.
func (r *runner) failure(err error, surfaced string) error {
	if surfaced == "" {
		return err
	}

	return errors.New(surfaced)
}
