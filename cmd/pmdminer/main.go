// main is the command-line entrypoint for pmdminer.
package main

import (
	"fmt"
	"os"

	"github.com/yourorg/pmdminer/cmd"
	"github.com/yourorg/pmdminer/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseStores()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
