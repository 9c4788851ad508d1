package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "chordnode",
		Short: "A Chord distributed hash table node",
		Long: `Chordnode runs a single node of a Chord ring. Nodes find each other through
a contact address or a PostgreSQL peer directory and route lookups for any
identifier in O(log N) hops using their finger tables.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCmd(), newLookupCmd(), newPingCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
