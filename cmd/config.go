package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ConfigCommand returns the command that prints the configuration
func ConfigCommand() *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate and print the configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}

			if dump {
				params, err := c.Dump()
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), params)
				return err
			}

			data, err := c.JSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().BoolVar(&dump, "dump", false,
		"print sorted \"Key: value\" lines instead of JSON")
	return cmd
}
