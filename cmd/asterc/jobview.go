package main

import "github.com/aster-lang/asterc-driver/pkg/job"

func jobToView(j *job.Job) planJobView {
	ins := make([]string, len(j.DisplayInputs))
	for i, in := range j.DisplayInputs {
		ins[i] = in.Location.Path
	}
	outs := make([]string, len(j.Outputs))
	for i, out := range j.Outputs {
		outs[i] = out.Location.Path
	}
	return planJobView{
		Kind:    j.Kind.String(),
		Tool:    j.Tool.Location.Path,
		Inputs:  ins,
		Outputs: outs,
	}
}
