// Command bitnode runs a single-threaded reactor-driven Bitcoin peer.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"go-bitcoin/internal/client"
	"go-bitcoin/internal/config"
	"go-bitcoin/internal/reactor"
	"go-bitcoin/internal/store"
)

func main() {
	var opts config.Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opts config.Options) error {
	log, err := buildLogger(opts.Verbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	network, err := opts.NetworkMagic()
	if err != nil {
		return err
	}

	blockStore, err := store.NewFileBlockStore(opts.BlockStorePath)
	if err != nil {
		return fmt.Errorf("open block store: %w", err)
	}
	defer blockStore.Close()

	state := client.NewSharedState(network, blockStore)
	cfg := client.Config{
		BindAddr:            opts.BindAddr,
		BindPort:            opts.BindPort,
		Network:             network,
		SlabCapacity:        opts.SlabCapacity,
		BlockStorePath:      opts.BlockStorePath,
		CloseOnWrongNetwork: opts.CloseOnWrongNetwork,
	}
	c := client.New(cfg, state, log)

	r, err := reactor.New(opts.BindAddr, opts.BindPort, opts.SlabCapacity, c, log)
	if err != nil {
		return fmt.Errorf("start reactor: %w", err)
	}
	c.SetReactor(r)

	log.Info("listening",
		zap.String("addr", opts.BindAddr),
		zap.Int("port", opts.BindPort),
		zap.String("network", network.String()),
		zap.String("run_id", c.RunID.String()),
	)

	return r.Run()
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
