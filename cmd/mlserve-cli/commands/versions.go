package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewVersionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List published model versions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime("")
			if err != nil {
				return err
			}

			versions, err := rt.modelStore.ListVersions(context.Background())
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Println("No published models.")
				return nil
			}
			for _, version := range versions {
				fmt.Println(version)
			}
			return nil
		},
	}
	return cmd
}
