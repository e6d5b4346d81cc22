package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ergoprover/pkg/core"
	"ergoprover/pkg/metrics"
	"ergoprover/pkg/prover"
	"ergoprover/pkg/rpc"
	"ergoprover/pkg/state"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	txPath := flag.String("tx", "", "Path to the unsigned transaction JSON (stdin if empty)")
	verify := flag.Bool("verify", true, "Verify the signed transaction before printing it")
	flag.Parse()

	if err := run(*txPath, *verify); err != nil {
		log.Fatal().Err(err).Msg("Prover failed")
	}
}

// run owns the prover so its secrets are wiped on every exit path
func run(txPath string, verify bool) error {
	config := core.DefaultConfig()
	if path := os.Getenv("PROVER_CONFIG"); path != "" {
		loaded, err := core.LoadConfig(path)
		if err != nil {
			return err
		}
		config = loaded
	}
	level, err := config.Level()
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	// Get base cost from environment variable or use zero
	var baseCost int64
	if v := os.Getenv("BASE_COST"); v != "" {
		baseCost, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse base cost: %w", err)
		}
	}

	mnemonic := os.Getenv("PROVER_MNEMONIC")
	if mnemonic == "" {
		return errors.New("PROVER_MNEMONIC is not set")
	}
	builder := prover.NewBuilder(config).WithMnemonic(mnemonic, os.Getenv("PROVER_MNEMONIC_PASSWORD"))

	// EIP-3 indices as a comma separated list, e.g. "0,1,2"
	if indices := os.Getenv("PROVER_EIP3_INDICES"); indices != "" {
		for _, s := range strings.Split(indices, ",") {
			index, err := strconv.ParseUint(strings.TrimSpace(s), 10, 31)
			if err != nil {
				return fmt.Errorf("failed to parse EIP-3 index %q: %w", s, err)
			}
			builder.WithEIP3Secret(uint32(index))
		}
	}

	p, err := builder.Build()
	if err != nil {
		return fmt.Errorf("failed to create prover: %w", err)
	}
	defer p.Close()
	log.Info().Str("address", p.Address()).Int("keys", len(p.PublicKeys())).Msg("Prover ready")

	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		registry := prometheus.NewRegistry()
		if err := metrics.Register(registry); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error().Err(err).Msg("Metrics server stopped")
			}
		}()
	}

	// Serve signing requests instead of a one-shot signature
	if addr := os.Getenv("RPC_ADDR"); addr != "" {
		server := rpc.NewServer(p, prover.VerifyTransaction, addr)
		if err := server.Start(); err != nil {
			return err
		}

		// Wait for shutdown signal
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		// Graceful shutdown
		return server.Stop()
	}

	var in io.Reader = os.Stdin
	if txPath != "" {
		f, err := os.Open(txPath)
		if err != nil {
			return fmt.Errorf("failed to open transaction: %w", err)
		}
		defer f.Close()
		in = f
	}
	tx, err := state.DecodeUnsignedTransaction(in)
	if err != nil {
		return err
	}

	signed, err := p.SignWithBaseCost(tx, baseCost)
	if err != nil {
		return err
	}

	if verify {
		ok, err := prover.VerifyTransaction(context.Background(), tx, signed)
		if err != nil {
			return fmt.Errorf("failed to verify transaction: %w", err)
		}
		if !ok {
			return errors.New("signed transaction failed verification")
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(signed)
}
