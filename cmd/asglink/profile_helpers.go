package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"asglink/internal/prof"
)

// setupProfiling inspects persistent profiling flags and enables the
// corresponding profilers. The cleanup is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	flags := cmd.Root().PersistentFlags()

	cpuProfile, err := flags.GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := flags.GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	tracePath, err := flags.GetString("runtime-trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	stopCPU := func() error { return nil }
	stopTrace := func() error { return nil }

	if cpuProfile != "" {
		if stopCPU, err = prof.StartCPU(cpuProfile); err != nil {
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
	}
	if tracePath != "" {
		if stopTrace, err = prof.StartTrace(tracePath); err != nil {
			_ = stopCPU()
			return nil, fmt.Errorf("failed to start runtime trace: %w", err)
		}
	}

	cleaned := false
	return func() {
		if cleaned {
			return
		}
		cleaned = true
		if err := stopTrace(); err != nil {
			fmt.Fprintf(stderr, "failed to finish runtime trace: %v\n", err)
		}
		if err := stopCPU(); err != nil {
			fmt.Fprintf(stderr, "failed to finish cpu profile: %v\n", err)
		}
		if memProfile != "" {
			if err := prof.WriteMem(memProfile); err != nil {
				fmt.Fprintf(stderr, "failed to write heap profile: %v\n", err)
			}
		}
	}, nil
}

// setupRuntime enables profiling and tracing for one command run.
func setupRuntime(cmd *cobra.Command) (func(), error) {
	stopProf, err := setupProfiling(cmd)
	if err != nil {
		return nil, err
	}
	stopTrace, err := setupTracing(cmd)
	if err != nil {
		stopProf()
		return nil, err
	}
	return func() {
		stopTrace()
		stopProf()
	}, nil
}
