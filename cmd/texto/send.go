package main

import (
	"strings"

	"github.com/spf13/cobra"
)

func newSendCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send <recipient> <text>...",
		Short: "Send one message and wait for the server's answer",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, rootOpts, args[0], strings.Join(args[1:], " "))
		},
	}
}

func runSend(cmd *cobra.Command, opts *rootOptions, recipient, text string) error {
	ctx := cmd.Context()
	p := newPrinter(cmd.OutOrStdout())

	e, err := connect(ctx, cmd, opts)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	data, err := e.Send(ctx, recipient, text)
	if err != nil {
		return err
	}

	p.success("delivered to %s", recipient)
	if len(data) > 0 {
		p.info("%s", data)
	}

	return nil
}
