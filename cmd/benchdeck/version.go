package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/benchdeck/internal/version"
)

func newVersionCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the build version and gateway user agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(out, version.Current())
				return err
			}
			_, err := fmt.Fprintf(out, "module:     %s\nversion:    %s\nuser-agent: %s\n",
				version.Module(), version.Current(), version.UserAgent())
			return err
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version")
	return cmd
}
