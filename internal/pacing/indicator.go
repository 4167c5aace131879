package pacing

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/ligun0805/wrap-cycler/internal/logging"
)

// BarIndicator draws a terminal progress bar that is cleared when the wait ends.
type BarIndicator struct {
	w    io.Writer
	desc string
	bar  *progressbar.ProgressBar
}

func NewBarIndicator(w io.Writer, desc string) *BarIndicator {
	return &BarIndicator{w: w, desc: desc}
}

func (b *BarIndicator) Start(total int) {
	if total <= 0 {
		b.bar = nil
		return
	}
	b.bar = progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription(fmt.Sprintf("[green]%s[reset]", b.desc)),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "■",
			SaucerPadding: ".",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (b *BarIndicator) Set(n int) {
	if b.bar != nil {
		_ = b.bar.Set(n)
	}
}

func (b *BarIndicator) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
		b.bar = nil
	}
}

// LogIndicator is used when output is not a terminal: it logs one info line
// when a wait starts and a debug line when it ends.
type LogIndicator struct {
	log     *zap.Logger
	clock   Clock
	total   int
	current int
	started time.Time
}

// NewLogIndicator reads elapsed time from clock, or SystemClock when nil.
func NewLogIndicator(log *zap.Logger, clock Clock) *LogIndicator {
	if clock == nil {
		clock = SystemClock
	}
	return &LogIndicator{log: logging.OrNop(log), clock: clock}
}

func (l *LogIndicator) Start(total int) {
	l.total, l.current, l.started = total, 0, l.clock.Now()
	if total > 0 {
		l.log.Info("waiting before next transaction",
			zap.Int("seconds", total),
			zap.Time("until", l.started.Add(time.Duration(total)*time.Second)))
	}
}

func (l *LogIndicator) Set(n int) { l.current = n }

func (l *LogIndicator) Finish() {
	if l.total > 0 {
		l.log.Debug("wait finished",
			zap.Int("seconds", l.current),
			zap.Duration("elapsed", l.clock.Now().Sub(l.started).Round(time.Millisecond)))
	}
}

// DefaultIndicator picks a progress bar for terminals and LogIndicator otherwise.
func DefaultIndicator(f *os.File, clock Clock, log *zap.Logger) Indicator {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return NewBarIndicator(f, "Waiting:")
	}
	return NewLogIndicator(log, clock)
}
