package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewRollbackCmd() *cobra.Command {
	var environment string

	cmd := &cobra.Command{
		Use:   "rollback",
		Short: "Re-promote the previous version of an environment's pointer",
		Example: `  # Roll production back to the previous version
  mlserve-cli rollback

  # Roll back staging
  mlserve-cli rollback -e staging`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(environment)
			if err != nil {
				return err
			}

			record, err := rt.pointers.Rollback(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("Rolled back %s to %s\n", record.Environment, record.ModelVersion)
			return nil
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "", "Target environment (default from config)")
	return cmd
}
