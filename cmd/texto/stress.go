package main

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/germanamz/texto/pkg/engine"
	"github.com/germanamz/texto/pkg/identity"
)

type stressOptions struct {
	Connections int
	Parallel    int
	Messages    int
}

// stressResult counts the outcome of a stress run.
type stressResult struct {
	Connected int64
	Failed    int64
	Sent      int64
	Elapsed   time.Duration
}

func newStressCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &stressOptions{}

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Open many sessions at once and report how many handshakes complete",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Connections, "connections", "n", 100, "number of sessions to open")
	cmd.Flags().IntVarP(&opts.Parallel, "parallel", "p", 50, "maximum concurrent connection attempts")
	cmd.Flags().IntVarP(&opts.Messages, "messages", "m", 0, "messages each session sends to a random recipient")

	return cmd
}

func runStress(cmd *cobra.Command, rootOpts *rootOptions, opts *stressOptions) error {
	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}

	p := newPrinter(cmd.OutOrStdout())
	res := stress(cmd.Context(), cfg, opts, engine.WithLogger(newLogger(cmd.ErrOrStderr(), cfg)))

	p.info("%d sessions in %s", opts.Connections, res.Elapsed.Round(time.Millisecond))
	p.success("%d handshakes completed", res.Connected)
	if res.Failed > 0 {
		p.failure("%d failed", res.Failed)
	}
	if opts.Messages > 0 {
		p.info("%d messages answered", res.Sent)
	}

	return nil
}

// stress opens opts.Connections engines against cfg.Address. Failures are
// counted, not returned, so one refused connection does not stop the run.
func stress(ctx context.Context, cfg engine.Config, opts *stressOptions, engineOpts ...engine.Option) stressResult {
	var res stressResult
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	if opts.Parallel > 0 {
		g.SetLimit(opts.Parallel)
	}

	for range opts.Connections {
		g.Go(func() error {
			e, err := engine.New(cfg, engineOpts...)
			if err != nil {
				return err
			}
			defer func() { _ = e.Close() }()

			if err := e.Connect(ctx); err != nil {
				atomic.AddInt64(&res.Failed, 1)
				return nil
			}
			atomic.AddInt64(&res.Connected, 1)

			for range opts.Messages {
				// An unknown recipient is still an answer.
				var rerr *engine.RemoteError
				if _, err := e.Send(ctx, identity.New(), "Hello World!"); err == nil || errors.As(err, &rerr) {
					atomic.AddInt64(&res.Sent, 1)
				}
			}
			return nil
		})
	}

	_ = g.Wait()
	res.Elapsed = time.Since(start)

	return res
}
