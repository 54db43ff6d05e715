package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/arbiter/pkg/judge"
	"github.com/cuemby/arbiter/pkg/log"
	"github.com/cuemby/arbiter/pkg/metrics"
	"github.com/cuemby/arbiter/pkg/types"
)

// jobFile is the on-disk YAML shape cmd/judge run loads: a types.Config
// plus the compile/run command templates that become judge.TemplateHooks.
type jobFile struct {
	types.Config `yaml:",inline"`
	Compile      string `yaml:"compile"`
	Run          string `yaml:"run"`
}

var runCmd = &cobra.Command{
	Use:   "run <job.yaml>",
	Short: "Compile and judge a submission against its test cases",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "Render commands instead of executing them")
	runCmd.Flags().String("checker", "", "Path to an external checker binary")
	runCmd.Flags().Bool("shuffle", false, "Run test cases in a randomized order")
	runCmd.Flags().Uint64("seed", 0, "Seed for --shuffle ordering")
	runCmd.Flags().Duration("timeout", 0, "Override the per-test fallback timeout")
	runCmd.Flags().Bool("early-exit", false, "Stop at the first non-Accepted verdict")
}

func runRun(cmd *cobra.Command, args []string) error {
	jobPath := args[0]

	raw, err := os.ReadFile(jobPath)
	if err != nil {
		return fmt.Errorf("reading job file: %w", err)
	}

	var job jobFile
	if err := yaml.Unmarshal(raw, &job); err != nil {
		return fmt.Errorf("parsing job file: %w", err)
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if dryRun {
		job.Config.DryRun = true
	}
	if earlyExit, _ := cmd.Flags().GetBool("early-exit"); earlyExit {
		job.Config.EarlyExit = true
	}
	if job.Config.ContainerName == "" {
		job.Config.ContainerName = "arbiter-" + uuid.New().String()
	}

	hooks := judge.TemplateHooks{Compile: job.Compile, Run: job.Run}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := log.WithSession(job.Config.ContainerName)
	session := judge.NewSession(job.Config, hooks, color.Output, logger)

	if err := session.Open(ctx); err != nil {
		return fmt.Errorf("opening session: %w", err)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer closeCancel()
		if err := session.Close(closeCtx); err != nil {
			logger.Warn().Err(err).Msg("failed to close session cleanly")
		}
	}()

	if _, err := session.Compile(ctx); err != nil {
		return fmt.Errorf("compiling: %w", err)
	}

	checkerPath, _ := cmd.Flags().GetString("checker")
	shuffle, _ := cmd.Flags().GetBool("shuffle")
	seed, _ := cmd.Flags().GetUint64("seed")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	it, err := session.Run(ctx, judge.RunOptions{
		CheckerPath: checkerPath,
		Shuffle:     shuffle,
		Seed:        seed,
		Timeout:     timeout,
	})
	if err != nil {
		return fmt.Errorf("starting run: %w", err)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	failures := 0
	for it.Next(ctx) {
		result := it.Result()
		if result.Verdict != types.AC {
			failures++
		}
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("running test cases: %w", err)
	}

	metrics.RecordSubsystem("last_run", job.Config.ContainerName, true, "")
	if failures > 0 {
		os.Exit(1)
	}
	return nil
}
