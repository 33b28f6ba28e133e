package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "signalfire",
	Short:         "InsiderLife SignalFire web service",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo fixtures into the configured store",
	Long: `Load the embedded courses, content, series, funnels, CTAs and activity
into the store named by SIGNALFIRE_STORAGE_DRIVER.

Existing records with the same IDs are overwritten, and activity entries
that are already stored are left alone, so seeding twice is safe. Use
--if-empty to skip stores that already hold catalog data.`,
	RunE: runSeed,
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table",
	RunE:  runRoutes,
}

var seedIfEmpty bool

func init() {
	seedCmd.Flags().BoolVar(&seedIfEmpty, "if-empty", false, "only seed a store without catalog data")
	rootCmd.AddCommand(serveCmd, seedCmd, routesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "signalfire:", err)
		os.Exit(1)
	}
}
