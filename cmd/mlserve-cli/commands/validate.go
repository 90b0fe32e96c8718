package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func NewValidatePointerCmd() *cobra.Command {
	var environment string

	cmd := &cobra.Command{
		Use:   "validate-pointer",
		Short: "Check that the serving pointer's artifacts all exist",
		Long: `Validate-pointer fetches the environment's current serving pointer and
re-checks that the model, metadata, and baseline it references are still
present in the store. Exits non-zero when the pointer is broken.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(environment)
			if err != nil {
				return err
			}

			ctx := context.Background()
			record, err := rt.pointers.GetCurrent(ctx)
			if err != nil {
				return err
			}
			if record == nil {
				return fmt.Errorf("no serving pointer exists for environment %q", rt.pointers.Environment())
			}

			if !rt.pointers.ValidatePointer(ctx, record) {
				return fmt.Errorf("pointer for %s references missing artifacts (version %s)",
					record.Environment, record.ModelVersion)
			}

			fmt.Printf("Pointer OK: %s serves %s\n", record.Environment, record.ModelVersion)
			return nil
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "", "Target environment (default from config)")
	return cmd
}
