package driver

import (
	"fmt"

	"asglink/internal/asg"
	"asglink/internal/asgfmt"
	"asglink/internal/diag"
	"asglink/internal/filter"
	"asglink/internal/trace"
	"asglink/internal/version"
)

// finalize filters, compacts and saves the merged graph, then writes the
// optional sidecar and dump. Only a failed save fails the link.
func (s *session) finalize() (ErrorCode, error) {
	opts := s.d.opts
	out := diag.Location{Path: opts.Output}
	s.emit("", StageFinalize, StatusWorking, nil, 0)
	_, span := trace.Start(s.ctx, trace.ScopePass, "finalize")
	idx := s.timer.Begin("finalize")
	defer s.timer.End(idx, opts.Output)

	res := filter.Apply(s.merged, opts.Filter, opts.Policy)
	s.d.stats.Filtered = res.Nodes
	if res.Nodes > 0 {
		diag.ReportInfo(s.reporter, diag.OutFiltered, out,
			fmt.Sprintf("filtered %d nodes in %d subtrees", res.Nodes, len(res.Entries)))
	}

	s.merged.Compact()
	s.d.stats.Nodes = s.merged.Live()

	header := s.merged.Header().Clone()
	delete(header, asg.HeaderExtraASG)
	delete(header, asg.HeaderChangeset)
	header[asg.HeaderCreateTime] = opts.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	header[asg.HeaderProducer] = version.Producer()
	if opts.Changeset != "" {
		header[asg.HeaderChangeset] = opts.Changeset
	}
	s.merged.SetHeader(header)

	if err := asg.Save(opts.Output, s.merged); err != nil {
		diag.ReportWarning(s.reporter, diag.LinkSaveFailed, out, err.Error())
		span.End(err.Error())
		return SaveError, fmt.Errorf("save %s: %w", opts.Output, err)
	}

	if opts.Filter.Enabled() {
		if err := filter.WriteSidecar(filter.NewSidecar(opts.Output, opts.Filter, res)); err != nil {
			diag.ReportWarning(s.reporter, diag.OutSidecarFailed, diag.Location{Path: filter.SidecarPath(opts.Output)}, err.Error())
		}
	}
	if opts.DumpPath != "" {
		if err := asgfmt.DumpFile(opts.DumpPath, s.merged, asgfmt.Options{Format: opts.DumpFormat, Refs: true}); err != nil {
			diag.ReportWarning(s.reporter, diag.OutDumpFailed, diag.Location{Path: opts.DumpPath}, err.Error())
		}
	}
	span.Count("nodes", s.d.stats.Nodes).
		Count("filtered", res.Nodes).
		End("")
	return Ok, nil
}
