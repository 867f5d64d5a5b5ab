package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var deleteTableCmd = &cobra.Command{
	Use:   "delete-table <name>",
	Short: "Delete the backing table, or succeed if it does not exist",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		logger := cliLogger()
		store, client, err := newStore(cmd.Context(), name)
		exitOnError(err)
		exitOnError(store.DeleteTable(cmd.Context(), client))
		logger.DebugLog("table gone", zap.String("table", name))
		fmt.Println("table gone:", name)
	},
}
