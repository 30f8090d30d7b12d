package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	var server string
	var token string

	rootCmd := &cobra.Command{
		Use:   "valuesctl",
		Short: "Inspect converted property values",
		Long: `valuesctl reads converted property values from a simple-values server,
announces publish events, and validates content type schema files offline.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&server, "server", "s", getEnv("VALUES_SERVER", "http://localhost:8080/api/v1"), "API base URL")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", os.Getenv("VALUES_TOKEN"), "bearer token for preview reads and invalidation")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(NewGetCommand())
	rootCmd.AddCommand(NewHasValueCommand())
	rootCmd.AddCommand(NewDescribeCommand())
	rootCmd.AddCommand(NewInvalidateCommand())
	rootCmd.AddCommand(NewTokenCommand())
	rootCmd.AddCommand(NewValidateCommand())

	return rootCmd
}

// clientFromFlags creates an API client from the global flags
func clientFromFlags(cmd *cobra.Command) *Client {
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	return NewClient(server, token)
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}
