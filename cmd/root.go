package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/tfstated/cmd/serve"
	"github.com/ValentinKolb/tfstated/cmd/state"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "tfstated",
		Short: "Terraform HTTP state backend",
		Long: fmt.Sprintf(`tfstated (v%s)

A single-workspace Terraform HTTP state backend written in Go,
storing the state document and the advisory lock durably on disk.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tfstated",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tfstated v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(state.StateCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
