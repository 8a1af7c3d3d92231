package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aster-lang/asterc-driver/internal/console"
)

func newPlanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plan [inputs...]",
		Short:   "Resolve the compilation mode and print the planned job sequence",
		GroupID: "planning",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, args)
		},
	}
	commonFlags(cmd)
	cmd.Flags().Bool("json", false, "print the plan as indented JSON instead of a table")
	return cmd
}

type planJobView struct {
	Kind    string   `json:"kind"`
	Tool    string   `json:"tool"`
	Inputs  []string `json:"inputs"`
	Outputs []string `json:"outputs"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	result, jobs, err := resolveAndPlan(cmd, args)
	if err != nil {
		return err
	}

	jsonMode, _ := cmd.Flags().GetBool("json")
	if jsonMode {
		views := make([]planJobView, len(jobs))
		for i, j := range jobs {
			views[i] = jobToView(j)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	}

	fmt.Fprintln(os.Stderr, console.FormatInfoMessage(fmt.Sprintf("resolved mode: %s", result.Mode.Kind)))
	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		v := jobToView(j)
		rows[i] = []string{v.Kind, joinOrDash(v.Inputs), joinOrDash(v.Outputs)}
	}
	fmt.Fprint(os.Stderr, console.RenderTable(console.TableConfig{
		Title:   "Planned jobs",
		Headers: []string{"kind", "inputs", "outputs"},
		Rows:    rows,
	}))
	return nil
}

func joinOrDash(ss []string) string {
	if len(ss) == 0 {
		return "-"
	}
	out := ss[0]
	for _, s := range ss[1:] {
		out += ", " + s
	}
	return out
}
