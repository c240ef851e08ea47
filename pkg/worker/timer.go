package worker

import (
	"context"
	"time"

	"github.com/petrijr/flowtree/pkg/scheduler"
)

// Timer emits the current time once, after d.
func Timer(d time.Duration) Worker[time.Time] {
	return timer{delay: d}
}

type timer struct {
	delay time.Duration
}

func (t timer) Run(ctx context.Context, emit Emit[time.Time]) error {
	tm := time.NewTimer(t.delay)
	defer tm.Stop()
	scheduler.Detach(ctx)
	select {
	case now := <-tm.C:
		return emit(ctx, now)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SameWork restarts a timer whose delay changed.
func (t timer) SameWork(other any) bool {
	o, ok := other.(timer)
	return ok && o.delay == t.delay
}

// Ticker emits the current time every d until cancelled.
func Ticker(d time.Duration) Worker[time.Time] {
	return ticker{period: d}
}

type ticker struct {
	period time.Duration
}

func (t ticker) Run(ctx context.Context, emit Emit[time.Time]) error {
	tk := time.NewTicker(t.period)
	defer tk.Stop()
	scheduler.Detach(ctx)
	for {
		select {
		case now := <-tk.C:
			if err := emit(ctx, now); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (t ticker) SameWork(other any) bool {
	o, ok := other.(ticker)
	return ok && o.period == t.period
}
