package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "eventos",
	Short: "Event ticketing marketplace backend",
	Long: `Backend for the event ticketing marketplace: organizers publish
events, attendees reserve and pay for tickets, staff validate entry
via QR codes, and administrators moderate the platform.`,
	Run: func(cmd *cobra.Command, args []string) {
		err := cmd.Help()
		if err != nil {
			log.Error().Err(err).Msg("Failed to display help")
		}
	},
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize()
}
