package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inferstack/mlserve/cmd/mlserve-cli/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mlserve-cli",
		Short: "Model registry and serving pointer CLI",
		Long: `A command-line interface for publishing models to the artifact store and
managing which version each environment serves.`,
		Version: "0.1.0",
	}

	rootCmd.PersistentFlags().StringVar(&commands.ConfigFile, "config", "", "config file (default searches ./mlserve.yaml and /etc/mlserve)")
	rootCmd.PersistentFlags().BoolVarP(&commands.Verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(commands.NewPublishCmd())
	rootCmd.AddCommand(commands.NewPromoteCmd())
	rootCmd.AddCommand(commands.NewRollbackCmd())
	rootCmd.AddCommand(commands.NewHistoryCmd())
	rootCmd.AddCommand(commands.NewVersionsCmd())
	rootCmd.AddCommand(commands.NewValidatePointerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
