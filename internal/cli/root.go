// Package cli is the command tree of the `console` end-user client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/target/admin-console/internal/adapters/filestore"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	apperrors "github.com/target/admin-console/internal/errors"
	"github.com/target/admin-console/internal/service"
)

// ErrNotLoggedIn is returned by commands that need a session when none is stored.
var ErrNotLoggedIn = errors.New("not logged in; run `console login` first")

// Client is the set of services the commands drive.
type Client struct {
	Auth     *service.AuthService
	Profiles *service.ProfileService
	Tasks    *service.TaskService
	// Close releases the client's connections; may be nil.
	Close func() error
}

// Opener builds a Client on first use.
type Opener func(ctx context.Context) (*Client, error)

type app struct {
	open   Opener
	client *Client
	in     io.Reader
	out    io.Writer
	asJSON bool
}

func (a *app) ensureClient(ctx context.Context) (*Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	c, err := a.open(ctx)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

func (a *app) close() error {
	if a.client == nil || a.client.Close == nil {
		return nil
	}
	return a.client.Close()
}

// session returns the stored login, mapping "no session" to ErrNotLoggedIn.
func (a *app) session(ctx context.Context) (*domainauth.Session, error) {
	c, err := a.ensureClient(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := c.Auth.GetSession(ctx, filestore.Slot)
	if apperrors.IsAuth(err) {
		return nil, ErrNotLoggedIn
	}
	return sess, err
}

// requireRole mirrors the API's role guard for commands that change team data.
func (a *app) requireRole(ctx context.Context, minRole domainauth.Role) (*domainauth.Session, error) {
	sess, err := a.session(ctx)
	if err != nil {
		return nil, err
	}
	if !sess.Role.AtLeast(minRole) {
		return nil, fmt.Errorf("this command requires the %s role (you are %s)", minRole, sess.Role)
	}
	return sess, nil
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "console",
		Short:         "Spaceborn admin console client",
		Long:          "console signs you in to the Spaceborn admin console and manages the team and its task board.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "Print results as JSON")

	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newLogoutCmd(a))
	root.AddCommand(newWhoamiCmd(a))
	root.AddCommand(newTokenCmd(a))
	root.AddCommand(newUsersCmd(a))
	root.AddCommand(newTasksCmd(a))
	return root
}

// Execute runs the command tree against a client built by open.
func Execute(version string, open Opener) error {
	a := &app{open: open, in: os.Stdin, out: os.Stdout}
	root := newRootCmd(a)
	root.Version = version

	err := root.Execute()
	if cerr := a.close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", apperrors.UserMessage(err))
		return err
	}
	return nil
}
