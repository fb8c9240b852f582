package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/germanamz/texto/pkg/engine"
	"github.com/germanamz/texto/pkg/envelope"
)

const chatHelp = `type "<recipient> <text>" to send, "/quit" to leave`

func newChatCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive session: send lines, print incoming messages",
		Long: `Connect and read lines of the form "<recipient> <text>" from standard input.
Each line is sent to the recipient session; incoming messages are printed as
they arrive. End with /quit, end of input or an interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, rootOpts)
		},
	}
}

func runChat(cmd *cobra.Command, opts *rootOptions) error {
	p := newPrinter(cmd.OutOrStdout())

	e, err := connect(cmd.Context(), cmd, opts, engine.WithPushHandler(func(m envelope.ReceivePayload) {
		p.message(m.SenderID, m.Text)
	}))
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	p.info("session %s", e.Session())
	p.info(chatHelp)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return sendLines(ctx, e, readLines(cmd.InOrStdin()), p)
	})

	g.Go(func() error {
		return waitClosed(ctx, e)
	})

	return g.Wait()
}

// readLines scans r on its own goroutine so callers can stop waiting on input
// without closing it. The channel closes at end of input.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

func sendLines(ctx context.Context, e *engine.Engine, lines <-chan string, p *printer) error {
	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}

		recipient, text, ok := parseChatLine(line)
		if !ok {
			p.failure(chatHelp)
			continue
		}

		if _, err := e.Send(ctx, recipient, text); err != nil {
			if errors.Is(err, engine.ErrConnectionClosed) || errors.Is(err, engine.ErrNotConnected) {
				return err
			}
			p.failure("%s: %v", recipient, err)
			continue
		}
		p.success("delivered to %s", recipient)
	}
}

// parseChatLine splits "<recipient> <text>". Both parts are required.
func parseChatLine(line string) (recipient, text string, ok bool) {
	recipient, text, _ = strings.Cut(strings.TrimSpace(line), " ")
	text = strings.TrimSpace(text)
	if recipient == "" || text == "" {
		return "", "", false
	}
	return recipient, text, true
}
