package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sbl8/vpudispatch/config"
	"github.com/sbl8/vpudispatch/dispatcher"
	"github.com/sbl8/vpudispatch/hwprofile"
	"github.com/sbl8/vpudispatch/kernels"
	"github.com/sbl8/vpudispatch/task"
)

var (
	runOpName              string
	runInputPath           string
	runScalarA             float64
	runElemCount           uint64
	runFuse                bool
	runExplorationOverride float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Dispatch a single task and print its outcome",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runOpName, "op", "", "task type: CONVOLUTION, GEMM, or SAXPY")
	runCmd.Flags().StringVar(&runInputPath, "input", "", "path to a raw little-endian float64 payload (or float32 for SAXPY)")
	runCmd.Flags().Float64Var(&runScalarA, "a", 1.0, "SAXPY scalar multiplier")
	runCmd.Flags().Uint64Var(&runElemCount, "n", 0, "element count override; defaults to the payload's natural length")
	runCmd.Flags().BoolVarP(&runFuse, "fuse", "O", true, "enable GraphOrchestrator kernel fusion analysis")
	runCmd.Flags().Float64Var(&runExplorationOverride, "exploration-rate", -1, "override the configured exploration rate (0-1); -1 keeps the config value")
	runCmd.MarkFlagRequired("op")
	runCmd.MarkFlagRequired("input")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !runFuse {
		cfg.FusionThreshold = math.MaxInt32
	}
	if runExplorationOverride >= 0 {
		cfg.ExplorationRate = runExplorationOverride
	}

	hw, err := loadOrSeedProfile(cfg.HardwareProfilePath)
	if err != nil {
		return err
	}

	d := dispatcher.New(cfg, hw, dispatcher.Options{})
	kernels.RegisterBuiltins(d.Registry)

	t, err := buildTask(runOpName, runInputPath, runScalarA, runElemCount)
	if err != nil {
		return err
	}

	if err := d.Execute(context.Background(), t); err != nil {
		return fmt.Errorf("execute: %w", err)
	}

	record := d.LastPerformanceRecord()
	fmt.Printf("cycle_cost=%d hw_in=%d hw_out=%d latency=%s\n",
		record.Report.CycleCost, record.Report.HWInCost, record.Report.HWOutCost,
		time.Duration(record.LatencyNanos))

	if cfg.HardwareProfilePath != "" {
		if err := hw.Save(cfg.HardwareProfilePath); err != nil {
			return fmt.Errorf("save hardware profile: %w", err)
		}
	}
	return nil
}

func loadOrSeedProfile(path string) (*hwprofile.Profile, error) {
	if path == "" {
		return hwprofile.NewSeeded(), nil
	}
	hw, err := hwprofile.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return hwprofile.NewSeeded(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load hardware profile: %w", err)
	}
	return hw, nil
}

// buildTask reads a raw float payload from path and wraps it as a Task for
// opName. SAXPY treats the payload as x with y initialized to zero; CONVOLUTION
// and GEMM treat it as a float64 signal or flattened square matrix.
func buildTask(opName, path string, scalarA float64, elemOverride uint64) (*task.Task, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	switch opName {
	case "SAXPY":
		if len(raw)%4 != 0 {
			return nil, fmt.Errorf("SAXPY input must be a whole number of float32s, got %d bytes", len(raw))
		}
		n := len(raw) / 4
		if elemOverride > 0 {
			n = int(elemOverride)
		}
		return &task.Task{
			OpName:  opName,
			InA:     raw,
			Out:     make([]byte, n*4),
			NumElem: uint64(n),
			Params:  task.ParamBag{"a": float32(scalarA)},
		}, nil
	case "CONVOLUTION", "GEMM":
		if len(raw)%8 != 0 {
			return nil, fmt.Errorf("%s input must be a whole number of float64s, got %d bytes", opName, len(raw))
		}
		n := len(raw) / 8
		if elemOverride > 0 {
			n = int(elemOverride)
		}
		return &task.Task{
			OpName:  opName,
			InA:     raw,
			Out:     make([]byte, n*8),
			NumElem: uint64(n),
		}, nil
	default:
		return nil, fmt.Errorf("unknown task type %q", opName)
	}
}
