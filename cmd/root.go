package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriAge/internal/app"
	"github.com/Rorical/RoriAge/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "roriage",
	Short: "Guess your age from the camera",
	Long:  `RoriAge watches your camera for a few seconds, estimates your age and lets you compare it with the real one.`,
	Run: func(cmd *cobra.Command, args []string) {
		runApp()
	},
}

func runApp() {
	if err := app.Run(config.LoadConfig); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(profileCmd)
}
