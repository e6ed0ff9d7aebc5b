package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sbl8/vpudispatch/config"
	"github.com/sbl8/vpudispatch/dispatcher"
	"github.com/sbl8/vpudispatch/kernels"
	"github.com/sbl8/vpudispatch/task"
)

var serveMetricsCmd = &cobra.Command{
	Use:   "serve-metrics",
	Short: "Serve Prometheus metrics while dispatching CONVOLUTION tasks read from stdin",
	Long: `Starts an HTTP server exposing /metrics and, concurrently, reads
whitespace-separated float64 signals from stdin (one CONVOLUTION task per
line), dispatching each and updating the exported counters and histograms.`,
	RunE: runServeMetrics,
}

func runServeMetrics(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	hw, err := loadOrSeedProfile(cfg.HardwareProfilePath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	d := dispatcher.New(cfg, hw, dispatcher.Options{MetricsRegistry: reg})
	kernels.RegisterBuiltins(d.Registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.MetricsListenAddr, Handler: mux}

	go func() {
		log.Printf("serving metrics on %s/metrics", cfg.MetricsListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server: %v", err)
		}
	}()

	dispatchStdinConvolutions(cmd.Context(), d)
	return srv.Shutdown(context.Background())
}

func dispatchStdinConvolutions(ctx context.Context, d *dispatcher.Dispatcher) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		samples, err := parseFloat64Line(line)
		if err != nil {
			log.Printf("skipping malformed line: %v", err)
			continue
		}

		raw := make([]byte, len(samples)*8)
		for i, v := range samples {
			binary.LittleEndian.PutUint64(raw[i*8:], math.Float64bits(v))
		}
		t := &task.Task{
			OpName:  "CONVOLUTION",
			InA:     raw,
			Out:     make([]byte, len(raw)),
			NumElem: uint64(len(samples)),
		}

		if err := d.Execute(ctx, t); err != nil {
			log.Printf("dispatch error: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("reading stdin: %v", err)
	}
}

func parseFloat64Line(line string) ([]float64, error) {
	fields := strings.Fields(line)
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("field %d (%q): %w", i, f, err)
		}
		out[i] = v
	}
	return out, nil
}
