package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// loginResponse mirrors the login endpoint's JSON.
type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

// roleRecord mirrors the server's role JSON.
type roleRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Grants      []struct {
		Resource string `json:"resource"`
		Action   string `json:"action"`
	} `json:"grants,omitempty"`
}

func newLoginCmd() *cobra.Command {
	var (
		email    string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and print a session token",
		Long: `Authenticate against the batch registry and print the session token.
Export the token as BATCHREG_TOKEN so subsequent commands pick it up:

    export BATCHREG_TOKEN=$(batchctl login --email qa@example.com)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				password = string(raw)
			}

			body, err := globalClient.postJSON("POST", "/api/v1/user/login", map[string]string{
				"email":    email,
				"password": password,
			})
			if err != nil {
				return err
			}

			var resp loginResponse
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parsing login response: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Logged in as %s (%s)\n", resp.User.Name, resp.User.Role)
			fmt.Fprintln(os.Stdout, resp.Token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email address")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prompted if omitted)")

	return cmd
}

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "User and role administration",
	}

	cmd.AddCommand(newRegisterAdminCmd())
	cmd.AddCommand(newCreateUserCmd())
	cmd.AddCommand(newAssignProjectsCmd())
	cmd.AddCommand(newRolesCmd())

	return cmd
}

func newRegisterAdminCmd() *cobra.Command {
	var (
		email    string
		name     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Bootstrap the first administrator account",
		Long: `Create the first administrator account. The server accepts this only
while no administrator exists yet; afterwards it answers with a
conflict and new users must be created by an administrator.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := globalClient.postJSON("POST", "/api/v1/admin/register", map[string]string{
				"email":    email,
				"name":     name,
				"password": password,
				"role":     "Admin",
			})
			if err != nil {
				return err
			}
			return renderBody(os.Stdout, body)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&name, "name", "", "Administrator display name")
	cmd.Flags().StringVar(&password, "password", "", "Administrator password")
	cobra.CheckErr(cmd.MarkFlagRequired("email"))
	cobra.CheckErr(cmd.MarkFlagRequired("name"))
	cobra.CheckErr(cmd.MarkFlagRequired("password"))

	return cmd
}

func newCreateUserCmd() *cobra.Command {
	var (
		email    string
		name     string
		password string
		role     string
		roleID   string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := globalClient.postJSON("POST", "/api/v1/admin/users", map[string]string{
				"email":    email,
				"name":     name,
				"password": password,
				"role":     role,
				"roleId":   roleID,
			})
			if err != nil {
				return err
			}
			return renderBody(os.Stdout, body)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "User email")
	cmd.Flags().StringVar(&name, "name", "", "User display name")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().StringVar(&role, "role", "", "Coarse role: Operator, Analyst, QA, Supervisor, Admin")
	cmd.Flags().StringVar(&roleID, "role-id", "", "Capability role ID granting fine-grained permissions")
	cobra.CheckErr(cmd.MarkFlagRequired("email"))
	cobra.CheckErr(cmd.MarkFlagRequired("name"))
	cobra.CheckErr(cmd.MarkFlagRequired("password"))
	cobra.CheckErr(cmd.MarkFlagRequired("role"))

	return cmd
}

func newAssignProjectsCmd() *cobra.Command {
	var (
		userID       string
		projects     []string
		assignedRole string
	)

	cmd := &cobra.Command{
		Use:   "assign-projects",
		Short: "Replace a user's project assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			type assignment struct {
				ProjectID    string `json:"projectId"`
				AssignedRole string `json:"assignedRole,omitempty"`
			}
			payload := struct {
				UserID      string       `json:"userId"`
				Assignments []assignment `json:"assignments"`
			}{UserID: userID}
			for _, p := range projects {
				payload.Assignments = append(payload.Assignments, assignment{ProjectID: p, AssignedRole: assignedRole})
			}

			body, err := globalClient.postJSON("POST", "/api/v1/admin/assign-users", payload)
			if err != nil {
				return err
			}
			return renderBody(os.Stdout, body)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID to assign")
	cmd.Flags().StringSliceVar(&projects, "project", nil, "Project ID (repeatable)")
	cmd.Flags().StringVar(&assignedRole, "assigned-role", "", "Role the user holds within the projects")
	cobra.CheckErr(cmd.MarkFlagRequired("user"))

	return cmd
}

func newRolesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "Manage capability roles and their grants",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List roles with their grants",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := globalClient.doRequest("GET", "/api/v1/admin/roles", nil)
			if err != nil {
				return err
			}

			var resp struct {
				Roles []roleRecord `json:"roles"`
			}
			if err := json.Unmarshal(body, &resp); err != nil {
				return fmt.Errorf("parsing roles response: %w", err)
			}

			format, err := parseOutputFormat(outputFlag)
			if err != nil {
				return err
			}
			if format != outputTable {
				return renderPayload(os.Stdout, format, resp)
			}

			table := newBatchTable("id", "name", "grants", "description")
			for _, r := range resp.Roles {
				table.row(
					r.ID,
					r.Name,
					strconv.Itoa(len(r.Grants)),
					cellText(r.Description, 50),
				)
			}
			return table.print(os.Stdout)
		},
	})

	var (
		name        string
		description string
		grants      []string
	)
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a role",
		Long: `Create a capability role. Grants are resource/action pairs, e.g.

    batchctl admin roles create --name qa-release --grant batches/release --grant batches/force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseGrants(grants)
			if err != nil {
				return err
			}
			body, err := globalClient.postJSON("POST", "/api/v1/admin/roles", map[string]any{
				"name":        name,
				"description": description,
				"grants":      parsed,
			})
			if err != nil {
				return err
			}
			return renderBody(os.Stdout, body)
		},
	}
	createCmd.Flags().StringVar(&name, "name", "", "Role name")
	createCmd.Flags().StringVar(&description, "description", "", "Role description")
	createCmd.Flags().StringSliceVar(&grants, "grant", nil, "Grant as resource/action (repeatable)")
	cobra.CheckErr(createCmd.MarkFlagRequired("name"))
	cmd.AddCommand(createCmd)

	var replaceGrants []string
	grantsCmd := &cobra.Command{
		Use:   "set-grants <role-id>",
		Short: "Replace a role's grant set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseGrants(replaceGrants)
			if err != nil {
				return err
			}
			body, err := globalClient.postJSON("POST", "/api/v1/admin/roles/"+args[0]+"/grants", map[string]any{
				"grants": parsed,
			})
			if err != nil {
				return err
			}
			return renderBody(os.Stdout, body)
		},
	}
	grantsCmd.Flags().StringSliceVar(&replaceGrants, "grant", nil, "Grant as resource/action (repeatable)")
	cmd.AddCommand(grantsCmd)

	return cmd
}

// parseGrants splits "resource/action" strings into grant objects.
func parseGrants(raw []string) ([]map[string]string, error) {
	grants := make([]map[string]string, 0, len(raw))
	for _, g := range raw {
		resource, action, ok := cutGrant(g)
		if !ok {
			return nil, fmt.Errorf("invalid grant %q: expected resource/action", g)
		}
		grants = append(grants, map[string]string{"resource": resource, "action": action})
	}
	return grants, nil
}

func cutGrant(s string) (resource, action string, ok bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return s[:i], s[i+1:], s[:i] != "" && s[i+1:] != ""
		}
	}
	return "", "", false
}
