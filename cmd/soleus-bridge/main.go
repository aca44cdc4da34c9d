// Soleus-bridge exposes Soleus portable air conditioners to Home Assistant.
//
// Every configured unit becomes an MQTT climate entity through Home
// Assistant discovery. Commands are encoded into IR frames and sent through
// the unit's blaster; frames seen by an IR receiver update the state when
// the vendor remote is used. An HTTP API serves the same units.
//
// Usage:
//
//	soleus-bridge run [flags]
//
// See 'soleus-bridge run --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/soleus/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "soleus-bridge",
	Short: "Home Assistant bridge for Soleus air conditioners",
	Long: `A bridge between Home Assistant and Soleus portable air conditioners.

Publishes each configured unit as an MQTT climate entity, transmits commands
as IR frames and follows the vendor remote through an IR receiver.

Note: For encoding, decoding and capturing codes, use the separate
'soleus-ir' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Banner("soleus-bridge"))
	},
}
