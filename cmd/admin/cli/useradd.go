package cli

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/domains/user/store/userdb"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

var (
	email      string
	firstName  string
	lastName   string
	department string
	employeeID string
	roles      string
	password   string
)

func init() {
	rootCommand.AddCommand(useraddCommand)

	addDBFlags(useraddCommand)

	useraddCommand.Flags().StringVar(&email, "email", "", "Email of the new user.")
	useraddCommand.Flags().StringVar(&firstName, "first-name", "", "First name of the new user.")
	useraddCommand.Flags().StringVar(&lastName, "last-name", "", "Last name of the new user.")
	useraddCommand.Flags().StringVar(&department, "department", "", "Department of the new user.")
	useraddCommand.Flags().StringVar(&employeeID, "employee-id", "", "Employee id of the new user.")
	useraddCommand.Flags().StringVar(&roles, "roles", "admin", "Comma separated roles.")
	useraddCommand.Flags().StringVar(&password, "password", "", "Password of the new user.")

	useraddCommand.MarkFlagRequired("email")
	useraddCommand.MarkFlagRequired("first-name")
	useraddCommand.MarkFlagRequired("last-name")
	useraddCommand.MarkFlagRequired("employee-id")
	useraddCommand.MarkFlagRequired("password")
}

var useraddCommand = &cobra.Command{
	Use:   "useradd",
	Short: "creates an admin user",
	Long: `Create an admin user directly in the database.

Examples:
  admin useradd --email=jane@fixdesk.io --first-name=Jane --last-name=Doe --employee-id=EMP-001 --password=secret123 --roles=admin,manager`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkDBFlags()
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open connection: %w", err)
		}
		defer db.Close()

		addr, err := mail.ParseAddress(email)
		if err != nil {
			return fmt.Errorf("parsing email: %w", err)
		}

		parsedRoles, err := bus.ParseManyRoles(strings.Split(roles, ","))
		if err != nil {
			return fmt.Errorf("parsing roles: %w", err)
		}

		store := userdb.NewStore(db, otel.Tracer("admin-cli"))
		usrBus := bus.New(store)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()

		usr, err := usrBus.Create(ctx, bus.NewUser{
			Email:      *addr,
			FirstName:  firstName,
			LastName:   lastName,
			Department: department,
			EmployeeID: employeeID,
			Roles:      parsedRoles,
			Password:   password,
			Enabled:    true,
		})
		if err != nil {
			return fmt.Errorf("create: %w", err)
		}

		fmt.Printf("created user %s (%s)\n", usr.FullName(), usr.ID)
		return nil
	},
}
