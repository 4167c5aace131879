package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/ligun0805/wrap-cycler/internal/config"
	"github.com/ligun0805/wrap-cycler/internal/history"
	"github.com/ligun0805/wrap-cycler/internal/wrapcore"
)

// printConfig shows what the bot is about to do. Keys are never printed in full.
func printConfig(ctx context.Context, w io.Writer, st config.Settings, cfg *config.RunConfig, target config.ChainTarget, client *wrapcore.Client, store *history.FileStore, accounts []string) {
	rpc := target.RPC
	if st.RPCURL != "" {
		rpc = st.RPCURL
	}
	fmt.Fprintln(w, "=== CONFIG ===")
	fmt.Fprintln(w, "Chain             :", cfg.Chain, "(id", client.ChainID().String()+")")
	fmt.Fprintln(w, "RPC               :", rpc)
	fmt.Fprintln(w, "Contract          :", client.Token().Hex())
	fmt.Fprintf(w, "Tx per cycle      : %d..%d\n", cfg.DailyTransactions.Min, cfg.DailyTransactions.Max)
	fmt.Fprintf(w, "Amount            : %s..%s %s\n", cfg.TransactionAmount.Min.Text('f'), cfg.TransactionAmount.Max.Text('f'), target.Symbol)
	fmt.Fprintf(w, "Delay (ms)        : %d..%d\n", cfg.TransactionDelay.Min, cfg.TransactionDelay.Max)
	fmt.Fprintln(w, "Cycle pause       :", st.CyclePause)
	fmt.Fprintln(w, "History           :", historyLine(store))
	for i, addr := range accounts {
		line := fmt.Sprintf("Account #%-2d       : %s  key %s", i+1, addr, maskHex(cfg.PrivateKeys[i]))
		balCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if bal, err := client.NativeBalanceWei(balCtx, addr); err == nil {
			line += "  balance " + formatEther(bal) + " " + target.Symbol
		}
		cancel()
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, "==============")
}

// historyLine names the log the store actually writes and how many
// records it already holds.
func historyLine(store *history.FileStore) string {
	records, err := store.Records()
	if err != nil {
		return store.Path() + " (unreadable: " + err.Error() + ")"
	}
	return fmt.Sprintf("%s (%d records)", store.Path(), len(records))
}

func maskHex(h string) string {
	h = strings.TrimSpace(h)
	if len(h) <= 10 {
		return "***"
	}
	return h[:6] + "…" + h[len(h)-4:]
}

func formatEther(v *big.Int) string {
	if v == nil {
		return "0"
	}
	s := new(big.Rat).SetFrac(v, big.NewInt(1_000_000_000_000_000_000))
	return s.FloatString(6)
}
