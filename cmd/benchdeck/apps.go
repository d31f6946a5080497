package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/benchdeck/core"
	"pkt.systems/benchdeck/schema"
)

func newListCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			console, _, err := opts.openConsole(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := console.Store().Refresh(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), snap.Apps)
			}
			return writeAppTable(cmd.OutOrStdout(), snap.Apps)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print applications as JSON")
	return cmd
}

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var name string
	var scenarioFile string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an application from a scenario file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := readScenario(cmd.InOrStdin(), scenarioFile)
			if err != nil {
				return err
			}
			console, _, err := opts.openConsole(cmd.Context())
			if err != nil {
				return err
			}
			resp, err := console.Dispatcher().Create(cmd.Context(), schema.CreateAppRequest{Name: name, Scenario: scenario})
			if err != nil {
				return describe(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) -> %s\n", resp.App.Name, resp.App.ID, resp.Location)
			return err
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "application name")
	cmd.Flags().StringVarP(&scenarioFile, "scenario-file", "f", "", "path to the scenario source (- for stdin)")
	return cmd
}

func newCloneCmd(opts *rootOptions) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "clone <source-name>",
		Short: "Create a copy of an application's scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			console, _, err := opts.openConsole(cmd.Context())
			if err != nil {
				return err
			}
			clone, err := console.Dispatcher().Clone(cmd.Context(), schema.CloneAppRequest{Name: args[0]})
			if err != nil {
				return describe(err)
			}
			snap, err := console.Store().Load(cmd.Context())
			if err != nil {
				return err
			}
			form := core.NewCreateForm(clone.Location, console.Clock())
			if !form.Prefill(snap) {
				return fmt.Errorf("application %q: %w", args[0], schema.ErrAppNotFound)
			}
			if strings.TrimSpace(name) != "" {
				form.SetName(name)
			}
			resp, err := form.Submit(cmd.Context(), console.Dispatcher())
			if err != nil {
				return describe(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s) -> %s\n", resp.App.Name, resp.App.ID, resp.Location)
			return err
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "name of the clone (default: <source>-<timestamp>)")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			console, _, err := opts.openConsole(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := console.Dispatcher().Delete(cmd.Context(), schema.DeleteAppRequest{ID: schema.AppID(args[0])}); err != nil {
				return describe(err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}

func newCancelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a running application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			console, _, err := opts.openConsole(cmd.Context())
			if err != nil {
				return err
			}
			id := schema.AppID(args[0])
			resp, err := console.Dispatcher().Cancel(cmd.Context(), schema.CancelAppRequest{ID: id})
			if err != nil {
				return describe(err)
			}
			status := schema.AppStatus("unknown")
			if app, ok := resp.Snapshot.Find(id); ok {
				status = app.Status
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "canceled %s (status: %s)\n", id, status)
			return err
		},
	}
}

func readScenario(stdin io.Reader, path string) (string, error) {
	switch strings.TrimSpace(path) {
	case "":
		return "", nil
	case "-":
		data, err := io.ReadAll(stdin)
		return string(data), err
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read scenario: %w", err)
		}
		return string(data), nil
	}
}

// describe folds the validation description into the returned error.
func describe(err error) error {
	var verr *schema.ValidationError
	if errors.As(err, &verr) && verr.Description != "" {
		return fmt.Errorf("%s %s", verr.Message, verr.Description)
	}
	return err
}

func writeAppTable(w io.Writer, apps []schema.Application) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tCREATED")
	for _, app := range apps {
		created := "-"
		if !app.CreatedAt.IsZero() {
			created = app.CreatedAt.Format("2006-01-02 15:04:05")
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", app.ID, app.Name, app.Status, created)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, payload any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
