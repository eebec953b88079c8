package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func (r *runner) loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login USERNAME",
		Short: "Log in and keep the session for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := r.readPassword()
			if err != nil {
				return err
			}

			if err := r.app.Auth.Login(cmd.Context(), args[0], password); err != nil {
				return r.failure(err, r.app.Auth.State().Err)
			}

			return r.printIdentity()
		},
	}

	cmd.Flags().StringVar(&r.passwordFile, "password-file", "", "read the password from this file instead of the terminal")

	return cmd
}

func (r *runner) registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register USERNAME EMAIL",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := r.readPassword()
			if err != nil {
				return err
			}

			if err := r.app.Auth.Register(cmd.Context(), args[0], args[1], password); err != nil {
				return r.failure(err, r.app.Auth.State().Err)
			}

			return r.printIdentity()
		},
	}

	cmd.Flags().StringVar(&r.passwordFile, "password-file", "", "read the password from this file instead of the terminal")

	return cmd
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}

			r.p.Success("Logged out")

			return nil
		},
	}
}

func (r *runner) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r.app.Auth.Check(cmd.Context())

			if r.jsonOut {
				return r.p.JSON(r.app.Auth.State())
			}

			if !r.app.Auth.Authenticated() {
				r.p.Warning("Not logged in")

				return nil
			}

			return r.printIdentity()
		},
	}
}

func (r *runner) printIdentity() error {
	st := r.app.Auth.State()
	if r.jsonOut {
		return r.p.JSON(st)
	}

	if st.User == nil {
		return ErrNotLoggedIn
	}

	r.p.Success("Logged in as %s <%s>", st.User.Username, st.User.Email)

	if id, ok := r.app.Session.Current(); ok {
		r.p.Print("%s", r.p.Dim("session valid until "+id.ExpiresAt.Local().Format("2006-01-02 15:04")))
	}

	return nil
}

// readPassword takes the password from --password-file, the terminal with
// echo off, or the first line of a piped stdin.
func (r *runner) readPassword() (string, error) {
	if r.passwordFile != "" {
		data, err := os.ReadFile(r.passwordFile)
		if err != nil {
			return "", fmt.Errorf("read password file error: %w", err)
		}

		password := strings.TrimRight(string(data), "\r\n")
		if password == "" {
			return "", fmt.Errorf("password file %s is empty", r.passwordFile)
		}

		return password, nil
	}

	if f, ok := r.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(r.stderr, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(r.stderr)

		if err != nil {
			return "", fmt.Errorf("read password error: %w", err)
		}

		return string(b), nil
	}

	line, err := bufio.NewReader(r.stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given (use --password-file or a terminal)")
	}

	return strings.TrimRight(line, "\r\n"), nil
}
