package cli

import (
	"fmt"

	"github.com/facilops/fixdesk/internal/migrate"
	"github.com/facilops/fixdesk/internal/sqldb"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// Database connection flags shared by the db-touching commands.
var (
	dbuser string
	dbpass string
	host   string
	name   string
)

func init() {
	rootCommand.AddCommand(migrateCommand)

	addDBFlags(migrateCommand)
}

func addDBFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&dbuser, "user", "u", "postgres", "Database username.")
	cmd.Flags().StringVarP(&dbpass, "pass", "p", "postgres", "Database password.")
	cmd.Flags().StringVar(&host, "host", "localhost:5432", "Database host:port.")
	cmd.Flags().StringVarP(&name, "name", "n", "postgres", "Database name.")
}

func openDB() (*sqlx.DB, error) {
	return sqldb.Open(sqldb.Config{
		User:       dbuser,
		Password:   dbpass,
		Host:       host,
		Name:       name,
		DisableTLS: true,
	})
}

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "applies database migrations",
	Long: `Execute database migrations.

Examples:
  admin migrate --user=myuser --pass=mypass --host=localhost:5432 --name=mydb`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return checkDBFlags()
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("applying migrations...")

		db, err := openDB()
		if err != nil {
			return fmt.Errorf("open connection: %w", err)
		}
		defer db.Close()

		if err := migrate.Migrate(db, name); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		fmt.Println("migration completed!")
		return nil
	},
}

func checkDBFlags() error {
	if dbuser == "" {
		return fmt.Errorf("database user is required (--user)")
	}

	if dbpass == "" {
		return fmt.Errorf("database password is required (--pass)")
	}

	if host == "" {
		return fmt.Errorf("database host is required (--host)")
	}

	if name == "" {
		return fmt.Errorf("database name is required (--name)")
	}

	return nil
}
