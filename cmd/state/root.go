package state

import (
	"github.com/ValentinKolb/tfstated/api/client"
	"github.com/ValentinKolb/tfstated/cmd/util"
	"github.com/spf13/cobra"
)

var (
	backend client.IBackendClient

	// StateCommands represents the state command group
	StateCommands = &cobra.Command{
		Use:               "state",
		Short:             "Perform state backend operations",
		PersistentPreRunE: setupStateClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common backend connection flags to the state command
	util.SetupClientFlags(StateCommands)

	// Add subcommands
	StateCommands.AddCommand(getCmd)
	StateCommands.AddCommand(putCmd)
	StateCommands.AddCommand(delCmd)
	StateCommands.AddCommand(lockCmd)
	StateCommands.AddCommand(unlockCmd)
	StateCommands.AddCommand(healthCmd)
	StateCommands.AddCommand(perfTestCmd)
}

// setupStateClient initializes the backend protocol client
func setupStateClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Create the backend client
	backend = client.NewBackendClient(*util.GetClientConfig())

	return nil
}
