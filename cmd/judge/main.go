package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cuemby/arbiter/pkg/log"
	"github.com/cuemby/arbiter/pkg/metrics"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "judge",
	Short: "arbiter - a sandboxed code-judging engine",
	Long: `arbiter compiles and runs a submission once per test case inside a
disposable, resource-limited container, classifying each run against a
cgroup v2 accounting of its time, memory and output.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("arbiter version %s (%s)\n", Version, Commit))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")

	cobra.OnInitialize(initLogging)

	metrics.SetVersion(Version)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{
		Level:      log.Level(level),
		JSONOutput: jsonOut,
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the arbiter version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("arbiter version %s (%s)\n", Version, Commit)
	},
}
