package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pkt.systems/benchdeck/internal/eventbus"
	"pkt.systems/pslog"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll applications and print changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			bus := eventbus.New(pslog.Ctx(ctx))
			events, unsubscribe := bus.Subscribe(eventbus.EventSnapshot, eventbus.EventNotice)
			defer unsubscribe()

			console, _, err := opts.openConsole(ctx, bus)
			if err != nil {
				return err
			}
			handle, err := console.Open(ctx)
			defer handle.Stop()
			if err != nil {
				return err
			}
			return printEvents(ctx.Done(), cmd.OutOrStdout(), events)
		},
	}
}

func printEvents(done <-chan struct{}, w io.Writer, events <-chan eventbus.Event) error {
	var lastVersion uint64
	for {
		select {
		case <-done:
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			switch event.Type {
			case eventbus.EventSnapshot:
				if !event.Snapshot.Loaded || event.Snapshot.Version == lastVersion {
					continue
				}
				lastVersion = event.Snapshot.Version
				_, _ = fmt.Fprintf(w, "-- version %d, %d applications\n", event.Snapshot.Version, len(event.Snapshot.Apps))
				if err := writeAppTable(w, event.Snapshot.Apps); err != nil {
					return err
				}
			case eventbus.EventNotice:
				_, _ = fmt.Fprintf(w, "!! %s %s %s\n", event.Notice.Action, event.Notice.Message, event.Notice.Description)
			}
		}
	}
}
