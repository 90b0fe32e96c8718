package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewHistoryCmd() *cobra.Command {
	var (
		environment string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived serving pointers, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(environment)
			if err != nil {
				return err
			}

			ctx := context.Background()
			current, err := rt.pointers.GetCurrent(ctx)
			if err != nil {
				return err
			}
			if current != nil {
				fmt.Printf("Current: %s (promoted %s by %s)\n\n",
					current.ModelVersion,
					current.PromotedAt.Format("2006-01-02 15:04:05"),
					current.PromotedBy)
			} else {
				fmt.Println("Current: none")
			}

			history, err := rt.pointers.History(ctx, limit)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Println("No archived pointers.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tPROMOTED AT\tBY\tREASON")
			for _, record := range history {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					record.ModelVersion,
					record.PromotedAt.Format("2006-01-02 15:04:05"),
					record.PromotedBy,
					record.PromotionReason)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&environment, "environment", "e", "", "Target environment (default from config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of entries")
	return cmd
}
