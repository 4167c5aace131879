package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/ligun0805/wrap-cycler/internal/config"
	"github.com/ligun0805/wrap-cycler/internal/engine"
	"github.com/ligun0805/wrap-cycler/internal/history"
	"github.com/ligun0805/wrap-cycler/internal/logging"
	"github.com/ligun0805/wrap-cycler/internal/pacing"
	"github.com/ligun0805/wrap-cycler/internal/wrapcore"
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	st := config.Load()
	log, err := logging.New(st.LogLevel)
	must(err, "logger")
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadRunConfig(st.ConfigFile)
	must(err, "read config")
	targets, err := config.LoadChainTargets(st.RPCFile)
	must(err, "read chain targets")
	target, err := targets.Resolve(cfg.Chain)
	if errors.Is(err, config.ErrChainNotFound) {
		die(fmt.Sprintf("no configuration for chain %q in %s", cfg.Chain, st.RPCFile))
	}
	must(err, "chain target")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := wrapcore.Dial(ctx, target, st.RPCURL, log)
	must(err, "connect")
	defer client.Close()

	accounts := make([]string, 0, len(cfg.PrivateKeys))
	for i, pk := range cfg.PrivateKeys {
		addr, err := client.AddAccount(pk)
		must(err, fmt.Sprintf("private key #%d", i+1))
		accounts = append(accounts, addr)
	}

	store, err := history.NewFileStore(st.HistoryFile, history.WithRetention(st.HistoryRetention))
	must(err, "open history")
	bounds, err := engine.BoundsFromConfig(cfg)
	must(err, "bounds")

	printConfig(ctx, os.Stdout, st, cfg, target, client, store, accounts)

	pacer := pacing.New(pacing.SystemClock, pacing.DefaultIndicator(os.Stdout, pacing.SystemClock, log))
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	runner := engine.NewRunner(client, store, pacer, rnd, bounds,
		engine.WithLogger(log),
		engine.WithSymbol(target.Symbol),
		engine.WithTxURL(target.TxURL),
	)
	sched := engine.NewScheduler(runner, pacer, accounts,
		engine.WithCyclePause(st.CyclePause),
		engine.WithSchedulerLogger(log),
	)

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		die(err.Error())
	}
	log.Info("stopped")
}

func must(err error, msg string) {
	if err != nil {
		die(msg + ": " + err.Error())
	}
}

func die(msg string) {
	fmt.Fprintln(os.Stderr, "Error:", msg)
	os.Exit(1)
}
