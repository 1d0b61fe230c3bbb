// cmd/tools/funnelctl/activities.go
package main

import (
	"encoding/json"
	"fmt"
	"io"

	"funnel-workers/pkg/registry"

	"github.com/spf13/cobra"
)

func newActivitiesCmd() *cobra.Command {
	var registryPath string

	load := func() (*registry.ActivityRegistry, error) {
		if registryPath == "" {
			return registry.Default()
		}
		return registry.LoadRegistry(registryPath)
	}

	cmd := &cobra.Command{
		Use:   "activities",
		Short: "Inspect and validate the activity registry",
	}
	cmd.PersistentFlags().StringVar(&registryPath, "path", "", "Registry file (default: embedded registry)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			return listActivities(cmd.OutOrStdout(), reg)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the registry file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := load()
			if err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			if len(reg.Activities) == 0 {
				return fmt.Errorf("registry validation failed: no activities")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schema <taskType>",
		Short: "Print the input schema of a task type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := load()
			if err != nil {
				return err
			}
			activity, ok := reg.Find(args[0])
			if !ok {
				return fmt.Errorf("no activity with task type %q", args[0])
			}
			return printJSON(cmd.OutOrStdout(), activity.InputSchema)
		},
	})

	return cmd
}

func listActivities(w io.Writer, reg *registry.ActivityRegistry) error {
	width := len("TASK TYPE")
	for _, a := range reg.Activities {
		width = max(width, len(a.TaskType))
	}
	if _, err := fmt.Fprintf(w, "%-*s  %-24s  %-8s  %-7s  %s\n", width, "TASK TYPE", "ID", "TIMEOUT", "RETRIES", "STATUS"); err != nil {
		return err
	}
	for _, a := range reg.Activities {
		if _, err := fmt.Fprintf(w, "%-*s  %-24s  %-8s  %-7d  %s\n", width, a.TaskType, a.ID, a.Timeout, a.Retries, a.ImplementationStatus); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
