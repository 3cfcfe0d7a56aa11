package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/bowstring/internal/midiout"
)

func init() {
	rootCmd.AddCommand(portsCmd)
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List available MIDI output ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := midiout.Ports()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No MIDI output ports available; a virtual port is created when playing.")
			return nil
		}
		for _, name := range ports {
			fmt.Println(name)
		}
		return nil
	},
}
