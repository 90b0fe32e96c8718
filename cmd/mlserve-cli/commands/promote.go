package commands

import (
	"context"
	"fmt"
	"os/user"

	"github.com/spf13/cobra"
)

type PromoteOptions struct {
	Environment string
	Actor       string
	Reason      string
}

func NewPromoteCmd() *cobra.Command {
	opts := &PromoteOptions{}

	cmd := &cobra.Command{
		Use:   "promote <version>",
		Short: "Make a model version authoritative for an environment",
		Long: `Promote verifies that the model artifact, metadata, and baseline all exist
in the store, archives the current serving pointer, and writes the new one.`,
		Example: `  # Promote a version to production
  mlserve-cli promote v20250118_120000_abc123 --reason "AUC improved to 0.91"

  # Promote to staging
  mlserve-cli promote v20250118_120000_abc123 -e staging`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPromote(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Environment, "environment", "e", "", "Target environment (default from config)")
	cmd.Flags().StringVar(&opts.Actor, "actor", "", "Who is promoting (default: current OS user)")
	cmd.Flags().StringVar(&opts.Reason, "reason", "", "Why this version is being promoted")

	return cmd
}

func runPromote(version string, opts *PromoteOptions) error {
	rt, err := newRuntime(opts.Environment)
	if err != nil {
		return err
	}

	actor := opts.Actor
	if actor == "" {
		if u, err := user.Current(); err == nil {
			actor = u.Username
		} else {
			actor = "unknown"
		}
	}

	record, err := rt.pointers.Promote(context.Background(), version, actor, opts.Reason)
	if err != nil {
		return err
	}

	fmt.Printf("Promoted %s to %s\n", record.ModelVersion, record.Environment)
	if record.PreviousVersion != "" {
		fmt.Printf("Previous version: %s\n", record.PreviousVersion)
	}
	fmt.Printf("Promoted at: %s by %s\n", record.PromotedAt.Format("2006-01-02 15:04:05 UTC"), record.PromotedBy)
	return nil
}
