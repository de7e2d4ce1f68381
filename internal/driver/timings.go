package driver

import (
	"encoding/json"
	"fmt"

	"asglink/internal/diag"
	"asglink/internal/observ"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
	Stages  []observ.StageReport `json:"stages"`
}

// appendTimingDiagnostic reports the phase timings as an info diagnostic
// whose note carries the JSON report.
func appendTimingDiagnostic(r diag.Reporter, output string, report observ.Report) {
	if r == nil {
		return
	}
	payload := timingPayload{Kind: "link", Path: output, TotalMS: report.TotalMS, Phases: report.Phases, Stages: report.Stages}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	loc := diag.Location{Path: output}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	r.Report(diag.New(diag.SevInfo, diag.ObsTimings, loc, msg).WithNote(loc, string(data)))
}
