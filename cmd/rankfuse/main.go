// Package main provides the rankfuse binary: an HTTP fusion server and a
// small CLI for fusing ranked lists offline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rankfuse/rankfuse/fusion"
	"github.com/rankfuse/rankfuse/internal/config"
	"github.com/rankfuse/rankfuse/internal/pkg/logger"
	"github.com/rankfuse/rankfuse/internal/server"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rankfuse",
		Short: "Rankfuse - rank fusion engine and HTTP service",
		Long: `Rankfuse combines ranked result lists from multiple retrievers into a
single ranking using rank fusion (RRF, ISR, Borda) and score fusion
(CombSUM, CombMNZ, DBSF, weighted) algorithms.

Run 'rankfuse serve' to start the HTTP server.
Run 'rankfuse fuse' to fuse lists from a file or stdin.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		serveCmd(),
		fuseCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the fusion HTTP server",
		Long: `Start the HTTP server exposing the fusion API:
  POST /v1/fuse          fuse ranked lists
  POST /v1/fuse/explain  fuse with per-document provenance
  POST /v1/fuse/batch    fuse multiple jobs concurrently
  POST /v1/validate      check ranked lists for common defects`,
		RunE: runServe,
	}

	cmd.Flags().IntP("port", "p", 8080, "HTTP server port")
	cmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	cmd.Flags().String("bus", "", "event bus type (memory, kafka)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")
	busType, _ := cmd.Flags().GetString("bus")

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override from flags
	if cmd.Flags().Changed("port") {
		appCfg.Port = port
	}
	if cmd.Flags().Changed("host") {
		appCfg.Host = host
	}
	if busType != "" {
		appCfg.Bus.Type = busType
	}
	if verbose {
		appCfg.Log.Level = "debug"
	}
	if err := appCfg.Validate(); err != nil {
		return err
	}

	log := logger.New(appCfg.Log.Level, appCfg.Log.Format)
	log.Info("Starting rankfuse server",
		"version", version,
		"addr", appCfg.Address(),
		"bus", appCfg.Bus.Type,
	)

	srvCfg := server.DefaultConfig()
	srvCfg.Host = appCfg.Host
	srvCfg.Port = appCfg.Port
	srvCfg.Version = version

	srv, err := server.New(srvCfg, appCfg, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func fuseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fuse [file]",
		Short: "Fuse ranked lists from a JSON file or stdin",
		Long: `Fuse ranked lists and print the fused ranking as JSON.

The input is a JSON array of ranked lists, each list an array of
{"id": ..., "score": ...} objects sorted by descending score:

  [
    [{"id": "doc1", "score": 9.5}, {"id": "doc2", "score": 8.1}],
    [{"id": "doc2", "score": 0.92}, {"id": "doc3", "score": 0.85}]
  ]

Reads from stdin when no file is given.

Examples:
  rankfuse fuse lists.json
  rankfuse fuse --method combsum --top-k 10 lists.json
  cat lists.json | rankfuse fuse --method weighted --weights 0.7,0.3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runFuse,
	}

	cmd.Flags().StringP("method", "m", "rrf", "fusion method")
	cmd.Flags().IntP("k", "k", 0, "smoothing constant for rrf/isr (0 = method default)")
	cmd.Flags().Int("top-k", 0, "limit output to top K results (0 = unlimited)")
	cmd.Flags().Float64Slice("weights", nil, "per-list weights for weighted methods")
	cmd.Flags().Bool("no-normalize", false, "disable min-max normalization for the weighted method")
	cmd.Flags().String("normalization", "", "normalization for additive_multi_task (minmax, zscore, sum, rank, none)")
	cmd.Flags().Bool("pretty", false, "indent JSON output")

	return cmd
}

func runFuse(cmd *cobra.Command, args []string) error {
	methodName, _ := cmd.Flags().GetString("method")
	k, _ := cmd.Flags().GetInt("k")
	topK, _ := cmd.Flags().GetInt("top-k")
	weights, _ := cmd.Flags().GetFloat64Slice("weights")
	noNormalize, _ := cmd.Flags().GetBool("no-normalize")
	normalization, _ := cmd.Flags().GetString("normalization")
	pretty, _ := cmd.Flags().GetBool("pretty")

	method, err := fusion.ParseMethod(methodName)
	if err != nil {
		return fmt.Errorf("%w: %s", err, methodName)
	}

	lists, err := readLists(args)
	if err != nil {
		return err
	}

	opts := fusion.DefaultOptions(method)
	if k > 0 {
		opts.K = k
	}
	if topK > 0 {
		opts.TopK = topK
	}
	if len(weights) > 0 {
		opts.Weights = weights
	}
	if noNormalize {
		opts.Normalize = false
	}
	if normalization != "" {
		norm, err := fusion.ParseNormalization(normalization)
		if err != nil {
			return fmt.Errorf("%w: %s", err, normalization)
		}
		opts.Normalization = norm
	}

	fused, err := fusion.Fuse(lists, method, opts)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(fused)
}

// readLists loads ranked lists from the given file, or stdin when no
// argument was passed.
func readLists(args []string) ([][]fusion.Scored[string], error) {
	var r io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lists [][]fusion.Scored[string]
	if err := json.NewDecoder(r).Decode(&lists); err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	if len(lists) == 0 {
		return nil, fmt.Errorf("input contains no ranked lists")
	}
	return lists, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rankfuse %s\n", version)
			fmt.Printf("  commit: %s\n", commit)
			fmt.Printf("  built:  %s\n", date)
		},
	}
}
