package cli

import (
	"github.com/spf13/cobra"
	domainauth "github.com/target/admin-console/internal/domain/auth"
	"github.com/target/admin-console/internal/domain/model"
	"github.com/target/admin-console/internal/service"
)

const roleChoices = "admin, core, employee, intern"

func newUsersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage team members",
	}
	cmd.AddCommand(newUsersListCmd(a))
	cmd.AddCommand(newUsersStatsCmd(a))
	cmd.AddCommand(newUsersCreateCmd(a))
	cmd.AddCommand(newUsersUpdateCmd(a))
	cmd.AddCommand(newUsersDeleteCmd(a))
	return cmd
}

func newUsersListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List team members with role counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.session(cmd.Context()); err != nil {
				return err
			}
			q, _ := cmd.Flags().GetString("query")
			roleFlag, _ := cmd.Flags().GetString("role")
			opts := model.ProfileListOptions{Q: q}
			if roleFlag != "" {
				role, ok := domainauth.ParseRole(roleFlag)
				if !ok {
					return errUsage("role", roleFlag, roleChoices)
				}
				opts.Role = role
			}

			view, err := a.client.Profiles.Team(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(view)
			}
			if err := a.printProfiles(view.Profiles); err != nil {
				return err
			}
			s := view.Stats
			return a.printf("\n%d members: %d admin, %d core, %d employee, %d intern\n",
				s.Total, s.Admins, s.Core, s.Employees, s.Interns)
		},
	}
	cmd.Flags().StringP("query", "q", "", "Filter by username or email substring")
	cmd.Flags().String("role", "", "Filter by role ("+roleChoices+")")
	return cmd
}

func newUsersStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show member counts per role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.session(cmd.Context()); err != nil {
				return err
			}
			s, err := a.client.Profiles.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(s)
			}
			return a.printf("total     %d\nadmin     %d\ncore      %d\nemployee  %d\nintern    %d\n",
				s.Total, s.Admins, s.Core, s.Employees, s.Interns)
		},
	}
}

func newUsersCreateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an identity account and profile (admin only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.requireRole(cmd.Context(), domainauth.RoleAdmin); err != nil {
				return err
			}
			email, _ := cmd.Flags().GetString("email")
			username, _ := cmd.Flags().GetString("username")
			password, _ := cmd.Flags().GetString("password")
			roleFlag, _ := cmd.Flags().GetString("role")
			role, ok := domainauth.ParseRole(roleFlag)
			if !ok {
				return errUsage("role", roleFlag, roleChoices)
			}

			p, err := a.client.Profiles.Provision(cmd.Context(), service.ProvisionRequest{
				CreateProfileRequest: model.CreateProfileRequest{Username: username, Email: email, Role: role},
				Password:             password,
			})
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(p)
			}
			return a.printf("Created %s <%s> as %s (uid %s)\n", p.Username, p.Email, p.Role, p.UID)
		},
	}
	cmd.Flags().String("email", "", "Email (required)")
	cmd.Flags().String("username", "", "Display name (required)")
	cmd.Flags().String("password", "", "Initial password (required)")
	cmd.Flags().String("role", string(domainauth.RoleEmployee), "Role ("+roleChoices+")")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newUsersUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <uid>",
		Short: "Change a member's name, email or role (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.requireRole(cmd.Context(), domainauth.RoleAdmin); err != nil {
				return err
			}
			var req model.UpdateProfileRequest
			if cmd.Flags().Changed("username") {
				v, _ := cmd.Flags().GetString("username")
				req.Username = &v
			}
			if cmd.Flags().Changed("email") {
				v, _ := cmd.Flags().GetString("email")
				req.Email = &v
			}
			if cmd.Flags().Changed("role") {
				v, _ := cmd.Flags().GetString("role")
				role, ok := domainauth.ParseRole(v)
				if !ok {
					return errUsage("role", v, roleChoices)
				}
				req.Role = &role
			}

			p, err := a.client.Profiles.Update(cmd.Context(), args[0], req)
			if err != nil {
				return err
			}
			if a.asJSON {
				return a.printJSON(p)
			}
			return a.printf("Updated %s <%s> (%s)\n", p.Username, p.Email, p.Role)
		},
	}
	cmd.Flags().String("username", "", "New display name")
	cmd.Flags().String("email", "", "New email")
	cmd.Flags().String("role", "", "New role ("+roleChoices+")")
	return cmd
}

func newUsersDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <uid>",
		Short: "Delete a member's profile (admin only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.requireRole(cmd.Context(), domainauth.RoleAdmin)
			if err != nil {
				return err
			}
			if err := a.client.Profiles.Delete(cmd.Context(), sess.UserID, args[0]); err != nil {
				return err
			}
			return a.printf("Deleted %s\n", args[0])
		},
	}
}
