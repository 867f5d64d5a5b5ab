package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var createTableCmd = &cobra.Command{
	Use:   "create-table <name>",
	Short: "Create the backing table, or succeed if it already exists",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name := args[0]
		logger := cliLogger()
		store, client, err := newStore(cmd.Context(), name)
		exitOnError(err)
		exitOnError(store.CreateTable(cmd.Context(), client))
		logger.DebugLog("table ready", zap.String("table", name))
		fmt.Println("table ready:", name)
	},
}
