package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/target/admin-console/internal/adapters/filestore"
)

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				var err error
				if password, err = a.readPassword(); err != nil {
					return err
				}
			}

			c, err := a.ensureClient(cmd.Context())
			if err != nil {
				return err
			}
			res, err := c.Auth.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(map[string]any{
					"user":       res.Profile,
					"expires_at": res.Session.ExpiresAt,
				})
			}
			return a.printf("Logged in as %s (%s)\n", res.Profile.Username, res.Profile.Role)
		},
	}
	cmd.Flags().String("email", "", "Account email (required)")
	cmd.Flags().String("password", "", "Account password; read from stdin when omitted")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) readPassword() (string, error) {
	if err := a.printf("Password: "); err != nil {
		return "", err
	}
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.ensureClient(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.Auth.Logout(cmd.Context(), filestore.Slot); err != nil {
				// The local session is gone either way.
				if perr := a.printf("Logged out locally; remote sign-out failed: %v\n", err); perr != nil {
					return perr
				}
				return nil
			}
			return a.printf("Logged out\n")
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(map[string]any{
					"uid":        sess.UserID,
					"id":         sess.DisplayID,
					"username":   sess.Username,
					"email":      sess.Email,
					"role":       sess.Role,
					"expires_at": sess.ExpiresAt,
				})
			}
			return a.printf("%s <%s>\nrole: %s\nuid: %s (#%d)\nsession expires: %s\n",
				sess.Username, sess.Email, sess.Role, sess.UserID, sess.DisplayID,
				sess.ExpiresAt.Local().Format(time.RFC1123))
		},
	}
}

func newTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Refresh and print the current identity token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.session(cmd.Context()); err != nil {
				return err
			}
			tok := a.client.Auth.CurrentToken(cmd.Context(), filestore.Slot)
			if tok == "" {
				return errors.New("no token available; log in again")
			}
			if a.asJSON {
				return a.printJSON(map[string]string{"token": tok})
			}
			return a.printf("%s\n", tok)
		},
	}
}

// errUsage formats a usage error for a bad flag value.
func errUsage(flag, value, allowed string) error {
	return fmt.Errorf("invalid --%s %q (allowed: %s)", flag, value, allowed)
}
