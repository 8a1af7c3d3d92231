package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aster-lang/asterc-driver/internal/console"
	"github.com/aster-lang/asterc-driver/pkg/job"
)

func newJobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "jobs [inputs...]",
		Short:   "Inspect the planned job DAG",
		GroupID: "inspection",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(cmd, args)
		},
	}
	commonFlags(cmd)
	cmd.Flags().Bool("graph", false, "render the job DAG as a Mermaid flowchart instead of a table")
	return cmd
}

func runJobs(cmd *cobra.Command, args []string) error {
	_, jobs, err := resolveAndPlan(cmd, args)
	if err != nil {
		return err
	}

	graph, _ := cmd.Flags().GetBool("graph")
	if graph {
		g, err := job.BuildGraph(jobs)
		if err != nil {
			return err
		}
		fmt.Println(renderMermaid(g, jobs))
		return nil
	}

	rows := make([][]string, len(jobs))
	for i, j := range jobs {
		v := jobToView(j)
		rows[i] = []string{fmt.Sprintf("%d", i), v.Kind, joinOrDash(v.Inputs), joinOrDash(v.Outputs)}
	}
	fmt.Fprint(os.Stderr, console.RenderTable(console.TableConfig{
		Title:   "Job graph",
		Headers: []string{"#", "kind", "inputs", "outputs"},
		Rows:    rows,
	}))
	return nil
}

// renderMermaid draws each job as a node and each dependency edge as an
// arrow, labeling nodes with their kind and position for readability.
func renderMermaid(g *job.Graph, jobs []*job.Job) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	index := make(map[*job.Job]int, len(jobs))
	for i, j := range jobs {
		index[j] = i
		fmt.Fprintf(&b, "  j%d[%q]\n", i, j.String())
	}
	for _, j := range jobs {
		for _, dep := range g.Dependencies(j) {
			fmt.Fprintf(&b, "  j%d --> j%d\n", index[dep], index[j])
		}
	}
	return b.String()
}
