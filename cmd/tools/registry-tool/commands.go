// cmd/tools/registry-tool/commands.go
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jtracker-hub/internal/common/config"
	"jtracker-hub/internal/common/logger"
	"jtracker-hub/internal/common/validation"
	"jtracker-hub/internal/coordinator"
	"jtracker-hub/internal/models"
	"jtracker-hub/internal/store"
	"jtracker-hub/pkg/registry"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "registry-tool",
		Short:         "Inspect and check the hub event registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("path", "", "Path to events.json (defaults to the embedded registry)")

	root.AddCommand(newListCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newScaffoldCmd())
	return root
}

func loadFromFlags(cmd *cobra.Command) (*registry.EventRegistry, error) {
	path, err := cmd.Flags().GetString("path")
	if err != nil {
		return nil, err
	}
	return registry.Load(path)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadFromFlags(cmd)
			if err != nil {
				return err
			}
			return printEvents(cmd.OutOrStdout(), reg)
		},
	}
}

func printEvents(out io.Writer, reg *registry.EventRegistry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIRECTION\tTRANSPORT\tHANDLED")
	for _, e := range reg.Events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", e.Name, e.Direction, e.Transport, e.Handled)
	}
	return w.Flush()
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the registry against the hub's event table and handlers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := loadFromFlags(cmd)
			if err != nil {
				return err
			}
			if err := validateRegistry(reg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registry %s OK (%d events)\n", reg.Version, len(reg.Events))
			return nil
		},
	}
}

// validateRegistry reports every disagreement between reg and the compiled
// event table: missing or unknown names, wrong direction or transport,
// handled flags that differ from the wired dispatch table, and schemas that
// do not compile.
func validateRegistry(reg *registry.EventRegistry) error {
	handled, err := handledEvents()
	if err != nil {
		return err
	}

	var errs []error
	seen := make(map[string]bool, len(reg.Events))
	for _, e := range reg.Events {
		if seen[e.Name] {
			errs = append(errs, fmt.Errorf("%s: listed twice", e.Name))
			continue
		}
		seen[e.Name] = true

		et := models.EventType(e.Name)
		if !et.Known() {
			errs = append(errs, fmt.Errorf("%s: not a known event", e.Name))
			continue
		}
		if e.Direction != string(et.Direction()) {
			errs = append(errs, fmt.Errorf("%s: direction %q, want %q", e.Name, e.Direction, et.Direction()))
		}
		if e.Transport != string(et.Transport()) {
			errs = append(errs, fmt.Errorf("%s: transport %q, want %q", e.Name, e.Transport, et.Transport()))
		}
		if e.Handled != handled[et] {
			errs = append(errs, fmt.Errorf("%s: handled=%t, dispatch table says %t", e.Name, e.Handled, handled[et]))
		}
	}
	for _, et := range models.AllEvents {
		if !seen[string(et)] {
			errs = append(errs, fmt.Errorf("%s: missing from registry", et))
		}
	}

	if _, err := validation.NewValidator(reg.DataSchemas()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// handledEvents wires a coordinator with default configuration and reports
// which events it answers.
func handledEvents() (map[models.EventType]bool, error) {
	coord, err := coordinator.New(&config.Config{}, coordinator.Deps{Store: store.NewMemoryStore()}, logger.NewNoOpLogger())
	if err != nil {
		return nil, err
	}
	out := map[models.EventType]bool{models.EventGetTabID: true}
	for _, et := range coord.Router().Handled() {
		out[et] = true
	}
	return out, nil
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <event> <payload.json|->",
		Short: "Validate a message payload against its event schema",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadFromFlags(cmd)
			if err != nil {
				return err
			}
			var data []byte
			if args[1] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[1])
			}
			if err != nil {
				return err
			}
			return checkPayload(cmd.OutOrStdout(), reg, args[0], data)
		},
	}
}

func checkPayload(out io.Writer, reg *registry.EventRegistry, event string, data []byte) error {
	if _, ok := reg.Find(event); !ok {
		return fmt.Errorf("unknown event %q", event)
	}
	v, err := validation.NewValidator(reg.DataSchemas())
	if err != nil {
		return err
	}
	if !v.Has(event) {
		return fmt.Errorf("event %q has no data schema", event)
	}
	result, err := v.Validate(event, data)
	if err != nil {
		return err
	}
	if !result.Valid {
		sort.Slice(result.Errors, func(i, j int) bool { return result.Errors[i].Field < result.Errors[j].Field })
		for _, e := range result.Errors {
			fmt.Fprintf(out, " - %s: %s\n", e.Field, e.Message)
		}
		return fmt.Errorf("payload does not match %s", event)
	}
	fmt.Fprintf(out, "%s payload OK\n", event)
	return nil
}
