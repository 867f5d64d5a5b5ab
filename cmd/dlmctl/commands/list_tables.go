package commands

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/go-xlan/dlm-go-suo/storeadapter/dynamostore"
)

var listTablesCmd = &cobra.Command{
	Use:   "list-tables",
	Short: "List every table visible to the configured credentials",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logger := cliLogger()
		client, err := newDynamoClient(cmd.Context())
		exitOnError(err)

		names, err := dynamostore.ListTables(cmd.Context(), client)
		exitOnError(err)
		logger.DebugLog("tables listed", zap.Int("count", len(names)))

		if len(names) == 0 {
			return
		}

		// No header, no border: exactly one table name per line, script-friendly output.
		// 不设表头、不设边框：每行恰好一个表名，便于脚本处理
		table := tablewriter.NewWriter(os.Stdout)
		table.SetBorder(false)
		table.SetColumnSeparator("")
		table.SetRowSeparator("")
		table.SetHeaderLine(false)
		table.SetTablePadding("")
		table.SetNoWhiteSpace(true)
		for _, name := range names {
			table.Append([]string{name})
		}
		table.Render()
	},
}
