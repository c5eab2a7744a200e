// sqlhelper is a terminal workbench for MySQL, PostgreSQL and SQLite
// databases. It runs as a TUI, as one-shot CLI commands, or as an SSH server.
package main

import (
	"os"

	"github.com/johan-st/sqlhelper/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
