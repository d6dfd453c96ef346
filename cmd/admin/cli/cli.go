package cli

import "github.com/spf13/cobra"

var rootCommand = &cobra.Command{
	Use:   "admin",
	Short: "admin cli for the fixdesk service",
	Long:  "admin cli to run migrations, generate signing keys and seed admin users for the fixdesk service",
	Run: func(cmd *cobra.Command, args []string) {
		//show help if no sub-command is provided
		cmd.Help()
	},
}

func Execute() error {
	return rootCommand.Execute()
}
