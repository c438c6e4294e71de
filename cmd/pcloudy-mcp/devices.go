package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rishav781/Pcloudy-MCP/internal/api"
	"github.com/rishav781/Pcloudy-MCP/internal/config"
)

// devicesCmd lists devices from the terminal without going through MCP.
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List devices in the pCloudy cloud",
	RunE:  runDevices,
}

func init() {
	devicesCmd.Flags().String("platform", config.DefaultPlatform, "Target platform (android or ios)")
	devicesCmd.Flags().Bool("all", false, "Include devices that are not currently available")
}

// runDevices prints the device list, one device per line.
func runDevices(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	platform, _ := cmd.Flags().GetString("platform")
	all, _ := cmd.Flags().GetBool("all")

	client := api.NewClient(cfg)
	defer client.Close()

	devices, err := client.ListDevices(cmd.Context(), platform, config.DefaultDuration, !all)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No devices found.")
		return nil
	}

	for _, d := range devices {
		status := "available"
		if !d.Available {
			status = "busy"
		}
		fmt.Printf("%-8d %-40s %s\n", d.ID, d.Model, status)
	}
	return nil
}
