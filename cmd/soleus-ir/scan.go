package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/soleus/internal/apiclient"
	"github.com/muurk/soleus/internal/discovery"
	"github.com/muurk/soleus/internal/ui"
)

var (
	scanTimeout int
	scanDetails bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().IntVar(&scanTimeout, "timeout", 0, "Scan timeout in seconds (default from config)")
	scanCmd.Flags().BoolVar(&scanDetails, "details", false, "Query each bridge for the state of its units")
}

// scanCmd discovers bridges on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for soleus-bridge instances on the network",
	Long: `Scan for running soleus-bridge instances using mDNS/DNS-SD discovery.

Each bridge announces its HTTP API and the units it serves.`,
	Example: `  # Scan with the configured timeout
  soleus-ir scan

  # Longer scan, with the current state of every unit
  soleus-ir scan --timeout 10 --details`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		scanner := discovery.NewScanner()
		scanner.Timeout = discoverTimeout()
		if scanTimeout > 0 {
			scanner.Timeout = time.Duration(scanTimeout) * time.Second
		}

		fmt.Printf("Scanning for bridges (timeout: %s)...\n\n", scanner.Timeout)

		devices, err := scanner.ScanForDevices(cmd.Context())
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if len(devices) == 0 {
			fmt.Println("No bridges found.")
			fmt.Println("\nTroubleshooting:")
			fmt.Println("  - Ensure soleus-bridge is running with http.advertise enabled")
			fmt.Println("  - Verify you are on the same network segment as the bridge")
			fmt.Println("  - Check that the firewall allows mDNS (UDP port 5353)")
			fmt.Println("  - Try increasing --timeout for slower networks")
			return nil
		}

		fmt.Printf("Found %d bridge(s):\n\n", len(devices))

		display := displayUnit()
		for i, device := range devices {
			fmt.Printf("%d. %s\n", i+1, device.Instance)
			fmt.Printf("   API:     %s\n", device.BaseURL())
			fmt.Printf("   Units:   %s\n", strings.Join(device.Units, ", "))
			if len(device.HeatUnits) > 0 {
				fmt.Printf("   Heat:    %s\n", strings.Join(device.HeatUnits, ", "))
			}
			if device.Version != "" {
				fmt.Printf("   Version: %s\n", device.Version)
			}

			if scanDetails {
				units, err := apiclient.NewClientWithURL(device.BaseURL()).Units(cmd.Context())
				if err != nil {
					fmt.Fprintf(os.Stderr, "   Error:   %v\n", err)
				}
				for _, u := range units {
					fmt.Printf("   %-8s %s\n", u.Name+":", ui.RenderState(u.State, display))
				}
			}
			fmt.Println()
		}

		fmt.Println("Use 'soleus-ir remote --unit <name> --discover' to control a unit")
		return nil
	},
}
