package cli

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	messagebus "github.com/facilops/fixdesk/internal/domains/message/bus"
	"github.com/facilops/fixdesk/internal/domains/message/store/messagedb"
	"github.com/facilops/fixdesk/internal/domains/user/bus"
	"github.com/facilops/fixdesk/internal/domains/user/store/userdb"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

func init() {
	rootCommand.AddCommand(seedCommand)

	addDBFlags(seedCommand)
}

type seedUser struct {
	email      string
	firstName  string
	lastName   string
	department string
	employeeID string
	roles      []bus.Role
}

var seedUsers = []seedUser{
	{"james.wilson@fixdesk.io", "James", "Wilson", "IT", "EMP-001", []bus.Role{bus.RoleAdmin}},
	{"maria.lopez@fixdesk.io", "Maria", "Lopez", "Plumbing", "EMP-002", []bus.Role{bus.RoleTechnician}},
	{"derek.stone@fixdesk.io", "Derek", "Stone", "Electrical", "EMP-003", []bus.Role{bus.RoleTechnician}},
	{"priya.nair@fixdesk.io", "Priya", "Nair", "HVAC", "EMP-004", []bus.Role{bus.RoleManager}},
	{"tom.wilson@fixdesk.io", "Tom", "Wilson", "Security", "EMP-005", []bus.Role{bus.RoleUser}},
}

var seedCommand = &cobra.Command{
	Use:   "seed",
	Short: "seeds demo data",
	Long: `Insert a small set of demo users and messages, useful for a fresh
development database.

Examples:
  admin seed --user=myuser --pass=mypass --host=localhost:5432 --name=mydb`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkDBFlags()
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open connection: %w", err)
		}
		defer db.Close()

		tracer := otel.Tracer("admin-cli")
		usrBus := bus.New(userdb.NewStore(db, tracer))
		msgBus := messagebus.New(messagedb.NewStore(db, tracer), usrBus)

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		users := make([]bus.User, 0, len(seedUsers))
		for _, su := range seedUsers {
			usr, err := usrBus.Create(ctx, bus.NewUser{
				Email:      mail.Address{Address: su.email},
				FirstName:  su.firstName,
				LastName:   su.lastName,
				Department: su.department,
				EmployeeID: su.employeeID,
				Roles:      su.roles,
				Password:   "fixdesk123",
				Enabled:    true,
			})
			if err != nil {
				return fmt.Errorf("seeding user %s: %w", su.email, err)
			}

			users = append(users, usr)
			fmt.Printf("created user %s (%s)\n", usr.FullName(), usr.ID)
		}

		admin := users[0]
		welcomes := []struct {
			to      bus.User
			subject string
			typ     messagebus.MessageType
		}{
			{users[1], "Leaking valve in building A", messagebus.MessageTypeTask},
			{users[2], "Panel inspection overdue", messagebus.MessageTypeAlert},
			{users[3], "Quarterly maintenance planning", messagebus.MessageTypeGeneral},
			{users[4], "New badge readers go live Monday", messagebus.MessageTypeAnnouncement},
		}

		for _, w := range welcomes {
			msg, err := msgBus.Send(ctx, admin, messagebus.NewMessage{
				ToUserID: w.to.ID,
				Subject:  w.subject,
				Body:     "See the facilities board for details.",
				Type:     w.typ,
			})
			if err != nil {
				return fmt.Errorf("seeding message to %s: %w", w.to.Email.Address, err)
			}

			fmt.Printf("sent %q to %s\n", msg.Subject, msg.ToUserName)
		}

		fmt.Println("seed completed!")
		return nil
	},
}
