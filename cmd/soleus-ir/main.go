// Soleus-ir encodes, decodes and sends the infrared frames of Soleus
// portable air conditioners.
//
// It converts between climate settings and the unit's 9-byte IR frames,
// transmits them through a configured IR blaster, learns buttons from a
// receiver log and offers an interactive remote in the terminal.
//
// Usage:
//
//	soleus-ir [command] [flags]
//
// See 'soleus-ir --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/soleus/internal/config"
	"github.com/muurk/soleus/internal/logging"
	"github.com/muurk/soleus/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:   "soleus-ir",
	Short: "Soleus air conditioner IR codec",
	Long: `A command line tool for the infrared protocol of Soleus portable air conditioners.

Encodes climate settings into the unit's 9-byte frames, decodes frames,
Pronto codes and receiver captures, and sends frames through the IR blaster
configured for a unit.

For the Home Assistant bridge, use the separate 'soleus-bridge' binary.`,
	Version: version.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configPath != "" {
			config.SetConfigPath(configPath)
		}
		if err := logging.InitializeFromEnv(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Banner("soleus-ir"))
	},
}
