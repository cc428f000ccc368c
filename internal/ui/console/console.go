// Package console implements the scrolling plain-text front end. Each
// refresh appends a complete frame to the output instead of redrawing
// in place, so earlier frames stay in the terminal scrollback.
package console

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/j-veylop/quota-watch-tui/internal/config"
	"github.com/j-veylop/quota-watch-tui/internal/models"
	"github.com/j-veylop/quota-watch-tui/internal/services"
	"github.com/j-veylop/quota-watch-tui/internal/services/refresh"
	"github.com/j-veylop/quota-watch-tui/internal/ui/render"
	"github.com/j-veylop/quota-watch-tui/internal/ui/styles"
)

// Console writes snapshot frames to out as refresh events arrive.
type Console struct {
	cfg *config.Config
	out io.Writer
}

// New creates a console front end writing to out.
func New(cfg *config.Config, out io.Writer) *Console {
	return &Console{cfg: cfg, out: out}
}

// Run subscribes to the manager, starts it, and prints one frame per
// event until ctx is canceled. The caller owns the manager and closes
// it on the way out.
func (c *Console) Run(ctx context.Context, mgr *services.Manager) error {
	// Subscribing before Start so the first snapshot is never missed.
	ch, _ := mgr.Subscribe()
	mgr.Start()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			c.handleEvent(event)
		}
	}
}

// Once performs a single fetch and prints one frame. The failure, if
// any, is printed before returning so the caller only sets the exit
// code.
func (c *Console) Once(ctx context.Context) error {
	snap, warnings, err := refresh.Once(ctx, services.NewSource(c.cfg))
	if err != nil {
		fmt.Fprintln(c.out, render.ErrorView(err, c.cfg.Debug))
		return err
	}

	fmt.Fprintln(c.out, render.Frame(snap, warnings, time.Now()))
	return nil
}

func (c *Console) handleEvent(event services.ServiceEvent) {
	switch e := event.(type) {
	case services.SnapshotEvent:
		c.printFrame(e.Snapshot, e.Warnings)
	case services.ErrorEvent:
		fmt.Fprintln(c.out, render.ErrorView(e.Err, c.cfg.Debug))
		c.printFooter()
	}
}

func (c *Console) printFrame(snap *models.Snapshot, warnings []models.ParseWarning) {
	fmt.Fprintln(c.out, render.Frame(snap, warnings, time.Now()))
	c.printFooter()
}

// printFooter separates frames and names the refresh cadence. Without
// an interval there is no timer, so only the separator is printed.
func (c *Console) printFooter() {
	if c.cfg.Interval <= 0 {
		fmt.Fprintln(c.out)
		return
	}
	fmt.Fprintf(c.out, "\n%s\n\n", styles.HelpStyle.Render(
		fmt.Sprintf("Refreshing every %s... (Ctrl+C to exit)", c.cfg.Interval)))
}
