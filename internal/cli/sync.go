package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/KumarDhananjaya/Spendly/internal/reconcile"
	"github.com/KumarDhananjaya/Spendly/internal/remote"
	"github.com/KumarDhananjaya/Spendly/internal/util"

	"github.com/spf13/cobra"
)

// ─── login / register / logout ──────────────────────────────────────────────

func passwordFlag(cmd *cobra.Command, p *string) {
	cmd.Flags().StringVarP(p, "password", "p", "", "account password (default $SPENDLY_PASSWORD)")
}

func credentials(args []string, password string) (string, string, error) {
	email := strings.ToLower(strings.TrimSpace(args[0]))
	if err := util.ValidateEmail(email); err != nil {
		return "", "", err
	}
	if password == "" {
		password = os.Getenv("SPENDLY_PASSWORD")
	}
	if password == "" {
		return "", "", errors.New("password required: pass --password or set SPENDLY_PASSWORD")
	}
	return email, password, nil
}

func newLoginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login EMAIL",
		Short: "Sign in to the sync server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, pw, err := credentials(args, password)
			if err != nil {
				return err
			}
			token, err := a.client.Login(cmd.Context(), email, pw)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := a.session.Save(remote.Session{Email: email, Token: token}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
			return nil
		},
	}
	passwordFlag(cmd, &password)
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register EMAIL",
		Short: "Create an account on the sync server and sign in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, pw, err := credentials(args, password)
			if err != nil {
				return err
			}
			if err := util.ValidatePassword(pw); err != nil {
				return err
			}
			if err := a.client.Register(cmd.Context(), email, pw); err != nil {
				return fmt.Errorf("register: %w", err)
			}
			token, err := a.client.Login(cmd.Context(), email, pw)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := a.session.Save(remote.Session{Email: email, Token: token}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", email)
			return nil
		},
	}
	passwordFlag(cmd, &password)
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.session.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

// ─── sync ───────────────────────────────────────────────────────────────────

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push pending changes and pull changes from other devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := a.reconciler().Run(cmd.Context())
			out := cmd.OutOrStdout()
			switch res.Outcome {
			case reconcile.Synced:
				fmt.Fprintf(out, "Synced: sent %d, received %d, applied %d\n", res.Sent, res.Received, res.Applied)
			case reconcile.Skipped:
				if res.Err != nil {
					return fmt.Errorf("sync skipped: %w; run spendly login", res.Err)
				}
				if a.session.Token() == "" {
					fmt.Fprintln(out, "Not logged in; changes stay queued")
				} else {
					fmt.Fprintln(out, "Server unreachable; changes stay queued")
				}
			case reconcile.InFlight:
				fmt.Fprintln(out, "A sync is already running")
			default:
				return fmt.Errorf("sync %s: %w", res.Outcome, res.Err)
			}
			if n := a.queue.Len(); n > 0 {
				fmt.Fprintf(out, "%d change(s) pending\n", n)
			}
			return nil
		},
	}
}
