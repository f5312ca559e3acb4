package state

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ValentinKolb/tfstated/api/common"
)

var (
	getCmd = &cobra.Command{
		Use:   "get",
		Short: "Reads the current state document and prints it to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, found, err := backend.GetState()
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no state stored")
			}
			fmt.Println(string(doc))
			return nil
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [file]",
		Short: "Uploads a state document from a file (or stdin if file is '-')",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var doc []byte
			var err error
			if args[0] == "-" {
				doc, err = io.ReadAll(os.Stdin)
			} else {
				doc, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read state document: %w", err)
			}

			lockID, _ := cmd.Flags().GetString("lock-id")
			if err := backend.PutState(doc, lockID); err != nil {
				return err
			}
			fmt.Println("state uploaded successfully")
			return nil
		},
	}
	delCmd = &cobra.Command{
		Use:   "del",
		Short: "Deletes the state document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lockID, _ := cmd.Flags().GetString("lock-id")
			if err := backend.DeleteState(lockID); err != nil {
				return err
			}
			fmt.Println("state deleted successfully")
			return nil
		},
	}
	lockCmd = &cobra.Command{
		Use:   "lock",
		Short: "Acquires the state lock and prints the generated lock ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			operation, _ := cmd.Flags().GetString("operation")

			record := newLockInfo(operation)
			acquired, holder, err := backend.Lock(record.Marshal())
			if err != nil {
				return err
			}
			if !acquired {
				return fmt.Errorf("lock is held by: %s", holder)
			}
			fmt.Printf("lock acquired, ID=%s\n", record.ID)
			return nil
		},
	}
	unlockCmd = &cobra.Command{
		Use:   "unlock [lock-id]",
		Short: "Releases the state lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			record := common.LockInfo{ID: args[0]}
			if err := backend.Unlock(record.Marshal()); err != nil {
				return err
			}
			fmt.Println("lock released successfully")
			return nil
		},
	}
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Prints the backend health status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := backend.Health()
			if err != nil {
				return err
			}
			fmt.Printf("status=%s, has_state=%v, is_locked=%v, timestamp=%s\n",
				health.Status, health.HasState, health.IsLocked, health.Timestamp)
			return nil
		},
	}
)

func init() {
	// Mutations accept the ID of a held lock
	putCmd.Flags().String("lock-id", "", "ID of the held lock authorizing this mutation")
	delCmd.Flags().String("lock-id", "", "ID of the held lock authorizing this mutation")

	lockCmd.Flags().String("operation", "cli", "Operation name stored in the lock record")
}

// newLockInfo generates a lock record the way Terraform itself does
func newLockInfo(operation string) *common.LockInfo {
	who := "unknown"
	if u, err := user.Current(); err == nil {
		host, _ := os.Hostname()
		who = fmt.Sprintf("%s@%s", u.Username, host)
	}

	return &common.LockInfo{
		ID:        uuid.New().String(),
		Operation: operation,
		Who:       who,
		Created:   time.Now().UTC().Format(time.RFC3339),
	}
}
