package main

import (
	"github.com/spf13/cobra"

	"github.com/germanamz/texto/pkg/engine"
	"github.com/germanamz/texto/pkg/envelope"
)

func newListenCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print the session id and every message pushed to it",
		Long: `Connect, print the session id other clients use to reach this one, then
print incoming messages until interrupted or the server closes the connection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListen(cmd, rootOpts)
		},
	}
}

func runListen(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	p := newPrinter(cmd.OutOrStdout())

	e, err := connect(ctx, cmd, opts, engine.WithPushHandler(func(m envelope.ReceivePayload) {
		p.message(m.SenderID, m.Text)
	}))
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	p.println(e.Session())

	return waitClosed(ctx, e)
}
