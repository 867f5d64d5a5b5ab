// Command dlmctl is the administrative CLI for the lock manager's backing tables.
// dlmctl 是锁管理器后端表的管理员 CLI
package main

import (
	"fmt"
	"os"

	"github.com/go-xlan/dlm-go-suo/cmd/dlmctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
