// Command jfsck is the offline checker and recovery tool for
// libjio-style journaled data files.
package main

import (
	"fmt"
	"os"

	"github.com/aasselin/libjio/cmd/jfsck/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jfsck:", err)
		os.Exit(1)
	}
}
