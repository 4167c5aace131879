package engine

import (
	"context"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ligun0805/wrap-cycler/internal/history"
	"github.com/ligun0805/wrap-cycler/internal/logging"
)

// Operator performs the on-chain side of a turn. Accounts are identified
// by address.
type Operator interface {
	NativeBalance(ctx context.Context, account string) (*apd.Decimal, error)
	TokenBalance(ctx context.Context, account string) (*apd.Decimal, error)
	SubmitWrap(ctx context.Context, account string, amount *apd.Decimal) (string, error)
	SubmitUnwrap(ctx context.Context, account string, amount *apd.Decimal) (string, error)
}

// Waiter suspends the caller for a number of seconds.
type Waiter interface {
	Wait(ctx context.Context, seconds int) error
}

// CycleReport summarizes one account's cycle.
type CycleReport struct {
	Account         string
	Planned         int
	Wrapped         int
	Unwrapped       int
	Skipped         int
	Failed          int
	PersistFailures int
}

// Runner executes one cycle for one account at a time.
type Runner struct {
	op     Operator
	store  history.Store
	pacer  Waiter
	rnd    Rand
	bounds Bounds
	log    *zap.Logger
	now    func() time.Time
	txURL  func(hash string) string
	symbol string
}

type RunnerOption func(*Runner)

func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) { r.log = logging.OrNop(l) }
}

func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithTxURL sets the explorer link builder used when logging sent transactions.
func WithTxURL(fn func(hash string) string) RunnerOption {
	return func(r *Runner) { r.txURL = fn }
}

// WithSymbol sets the native coin symbol used in log lines.
func WithSymbol(symbol string) RunnerOption {
	return func(r *Runner) {
		if symbol != "" {
			r.symbol = symbol
		}
	}
}

func NewRunner(op Operator, store history.Store, pacer Waiter, rnd Rand, bounds Bounds, opts ...RunnerOption) *Runner {
	r := &Runner{
		op:     op,
		store:  store,
		pacer:  pacer,
		rnd:    rnd,
		bounds: bounds,
		log:    zap.NewNop(),
		now:    time.Now,
		txURL:  func(string) string { return "" },
		symbol: "ETH",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunWallet runs a full cycle for account. Per-turn failures are logged and
// counted; the only returned error is a cancelled context.
func (r *Runner) RunWallet(ctx context.Context, account string) (CycleReport, error) {
	log := r.log.With(zap.String("account", account))
	state := CycleState{TurnsRemaining: r.bounds.drawTurns(r.rnd)}
	rep := CycleReport{Account: account, Planned: state.TurnsRemaining}

	r.reportStats(log, account)
	log.Info("wallet cycle started", zap.Int("turns", state.TurnsRemaining))

	for state.TurnsRemaining > 0 {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		state.TurnsRemaining--
		if err := r.turn(ctx, log, account, &state, &rep); err != nil {
			return rep, err
		}
	}

	log.Info("wallet cycle finished",
		zap.Int("wrapped", rep.Wrapped),
		zap.Int("unwrapped", rep.Unwrapped),
		zap.Int("skipped", rep.Skipped),
		zap.Int("failed", rep.Failed),
		zap.Int("unwrap_turns", state.UnwrapCount))
	return rep, nil
}

func (r *Runner) reportStats(log *zap.Logger, account string) {
	st, err := history.Collect(r.store, account)
	if err != nil {
		log.Error("could not read transaction history", zap.Error(err))
	}
	log.Info("transaction statistics",
		zap.Int("today", st.Today),
		zap.Int("last_7_days", st.Week),
		zap.Int("last_30_days", st.Month))
}

// turn runs one selection/gate/submit/pace step. Only context errors are returned.
func (r *Runner) turn(ctx context.Context, log *zap.Logger, account string, state *CycleState, rep *CycleReport) error {
	action := Select(state)
	amount := r.bounds.drawAmount(r.rnd)
	amountStr := amount.Text('f')
	log = log.With(zap.String("action", string(action)), zap.String("amount", amountStr))

	balance, err := r.balance(ctx, action, account)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Error("balance check failed, skipping turn", zap.Error(err))
		rep.Skipped++
		return nil
	}
	if !CanAfford(balance, amount) {
		log.Warn("insufficient balance, skipping turn", zap.String("balance", balance.Text('f')))
		rep.Skipped++
		return nil
	}

	log.Info(r.describe(action, amountStr))
	txHash, err := r.submit(ctx, action, account, amount)
	if err != nil {
		log.Error("submission failed", zap.Error(err))
		rep.Failed++
	} else {
		r.recordSuccess(log, account, action, amountStr, txHash, state, rep)
	}

	seconds := r.bounds.drawDelaySeconds(r.rnd)
	log.Info("waiting before next transaction", zap.Int("seconds", seconds))
	return r.pacer.Wait(ctx, seconds)
}

func (r *Runner) recordSuccess(log *zap.Logger, account string, action history.Action, amount, txHash string, state *CycleState, rep *CycleReport) {
	if action == history.ActionWrap {
		state.RecordWrap()
		rep.Wrapped++
	} else {
		rep.Unwrapped++
	}

	fields := []zap.Field{zap.String("tx", txHash)}
	if url := r.txURL(txHash); url != "" {
		fields = append(fields, zap.String("explorer", url))
	}
	log.Info("transaction sent", fields...)

	rec := history.Record{
		Action:    action,
		Amount:    amount,
		Wallet:    account,
		TxHash:    txHash,
		Timestamp: r.now().UTC(),
	}
	if err := r.store.Append(rec); err != nil {
		rep.PersistFailures++
		log.Error("transaction sent on-chain but NOT recorded in history, reconcile manually",
			zap.String("tx", txHash),
			zap.Time("timestamp", rec.Timestamp),
			zap.Bool("persist_error", errors.Is(err, history.ErrPersist)),
			zap.Error(err))
	}
}

func (r *Runner) balance(ctx context.Context, action history.Action, account string) (*apd.Decimal, error) {
	if action == history.ActionWrap {
		return r.op.NativeBalance(ctx, account)
	}
	return r.op.TokenBalance(ctx, account)
}

func (r *Runner) submit(ctx context.Context, action history.Action, account string, amount *apd.Decimal) (string, error) {
	if action == history.ActionWrap {
		return r.op.SubmitWrap(ctx, account, amount)
	}
	return r.op.SubmitUnwrap(ctx, account, amount)
}

func (r *Runner) describe(action history.Action, amount string) string {
	if action == history.ActionWrap {
		return "wrapping " + amount + " " + r.symbol
	}
	return "unwrapping " + amount + " W" + r.symbol
}
