package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Makepad-fr/tada/internal/config"
)

// ---------------------------------------------------
// Auth subcommands
// ---------------------------------------------------

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Token authentication",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usageErr("usage: tada auth <login|logout|status|whoami>")
		},
	}
	cmd.AddCommand(newAuthLoginCmd(app))
	cmd.AddCommand(newAuthLogoutCmd(app))
	cmd.AddCommand(newAuthStatusCmd(app))
	cmd.AddCommand(newAuthWhoAmICmd(app))
	return cmd
}

func newAuthLoginCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store a token (read from the terminal without echo, or from stdin)",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := readToken(cmd)
			if err != nil {
				return fmt.Errorf("read token: %w", err)
			}
			ti, err := config.SetToken(app.env, token)
			if err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			say(cmd.OutOrStdout(), toneOK, "logged in")
			if ti.ExpiresAt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "expires: %s\n", ti.ExpiresAt.Format(time.RFC3339))
			}
			if owner := config.OwnerFromToken(ti.Token); owner > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "owner: %d (from token)\n", owner)
			}
			return nil
		},
	}
}

// readToken prompts without echo on a terminal; otherwise it reads the first
// line of stdin so tokens can be piped in.
func readToken(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()
	if f, isFile := in.(*os.File); isFile && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), "Paste your token: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errors.New("no token on stdin")
	}
	return sc.Text(), nil
}

func newAuthLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored token",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, _ := config.GetToken(app.env)
			if ti != nil && ti.Source == "env" {
				say(cmd.OutOrStdout(), toneOK, "token is provided by "+config.TokenEnv+" env var (nothing to delete)")
				return nil
			}
			if err := config.DeleteToken(app.env); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			say(cmd.OutOrStdout(), toneOK, "logged out")
			return nil
		},
	}
}

func newAuthStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			ti, err := config.GetToken(app.env)
			if err != nil {
				return err
			}
			if ti == nil {
				hint(w, "not logged in")
				fmt.Fprintln(w, "Run: tada auth login")
				return nil
			}
			fmt.Fprintf(w, "source: %s\n", ti.Source)
			if ti.ExpiresAt != nil {
				fmt.Fprintf(w, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
				if ti.ExpiresAt.Before(time.Now()) {
					say(w, toneWarn, "token has expired")
				}
			} else {
				fmt.Fprintln(w, "expires: (unknown)")
			}
			fmt.Fprintln(w, "env override: "+config.TokenEnv)
			return nil
		},
	}
}

// whoami decodes a JWT locally (unverified); opaque tokens print basic info.
func newAuthWhoAmICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the claims of the stored token",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			ti, err := config.GetToken(app.env)
			if err != nil {
				return err
			}
			if ti == nil {
				return usageErr("not logged in. Run: tada auth login")
			}
			claims, err := config.Claims(ti.Token)
			if err != nil {
				fmt.Fprintln(w, "Opaque token (cannot introspect locally).")
				fmt.Fprintln(w, "source:", ti.Source)
				return nil
			}
			b, err := json.MarshalIndent(claims, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "JWT payload:")
			fmt.Fprintln(w, string(b))
			return nil
		},
	}
}
