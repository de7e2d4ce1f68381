package driver

import (
	"errors"
	"fmt"
	"time"

	"asglink/internal/asg"
	"asglink/internal/diag"
	"asglink/internal/filter"
	"asglink/internal/identity"
	"asglink/internal/linker"
	"asglink/internal/trace"
)

var errNoOutput = errors.New("no output path")

// init clears the previous sidecar, sets up the merged graph and queues
// the caller's inputs.
func (s *session) init(paths []string) error {
	opts := s.d.opts
	idx := s.timer.Begin("init")
	defer s.timer.End(idx, "")

	if opts.Output == "" {
		return errNoOutput
	}
	if err := filter.RemoveSidecar(opts.Output); err != nil {
		return fmt.Errorf("remove stale filter sidecar: %w", err)
	}

	s.index = identity.New(opts.Policy)
	if opts.BasePath != "" {
		base, err := asg.Load(opts.BasePath)
		if err != nil {
			diag.ReportWarning(s.reporter, diag.LinkLoadFailed, diag.Location{Path: opts.BasePath}, err.Error())
			return fmt.Errorf("load base graph: %w", err)
		}
		s.merged = base
		s.queue.Mark(opts.BasePath)
	} else {
		s.merged = asg.New(1024)
	}
	s.linker = linker.New(s.merged, s.index)

	for _, p := range paths {
		if !s.queue.Push(p) {
			diag.ReportInfo(s.reporter, diag.LinkDuplicateInput, diag.Location{Path: p}, "input listed more than once, linked once")
			continue
		}
		s.emit(p, StageLoad, StatusQueued, nil, 0)
	}
	return nil
}

// loadNext pops the next input and reads it. A file that fails to load is
// reported and skipped; more is false once the queue is empty.
func (s *session) loadNext() (loaded, more bool) {
	path, ok := s.queue.Pop()
	if !ok {
		return false, false
	}
	s.sourcePath = path
	s.fileStart = time.Now()
	s.fileCtx, s.fileSpan = trace.Start(s.ctx, trace.ScopeFile, path)
	s.emit(path, StageLoad, StatusWorking, nil, 0)

	idx := s.timer.Begin("load")
	g, err := asg.Load(path)
	s.timer.End(idx, path)
	if err != nil {
		s.skipped++
		s.mem.Sample()
		diag.ReportWarning(s.reporter, diag.LinkLoadFailed, diag.Location{Path: path}, err.Error())
		s.fileSpan.End("skipped: " + err.Error())
		s.emit(path, StageLoad, StatusSkipped, err, time.Since(s.fileStart))
		s.sourcePath, s.fileCtx, s.fileSpan = "", nil, nil
		return false, s.queue.Len() > 0
	}
	s.source = g
	s.d.stats.Loaded++

	if extra := g.Header().Get(asg.HeaderExtraASG); extra != "" {
		dep := resolveExtra(path, extra)
		if s.queue.Push(dep) {
			s.emit(dep, StageLoad, StatusQueued, nil, 0)
			trace.Point(s.tracer, trace.ScopeFile, "extra-asg", s.fileSpan.ID(), dep)
		}
	}
	return true, true
}

// indexMerged seeds the identity index with the merged graph as it stands:
// empty on a cold link, the base graph on an incremental one.
func (s *session) indexMerged() error {
	s.emit(s.sourcePath, StageIndex, StatusWorking, nil, 0)
	idx := s.timer.Begin("index")
	n, err := identity.Seed(s.index, s.merged)
	s.timer.End(idx, fmt.Sprintf("%d nodes", n))
	if err != nil {
		s.emit(s.sourcePath, StageIndex, StatusError, err, 0)
		return err
	}
	return nil
}

// mergeFile merges the loaded source and drops it.
func (s *session) mergeFile() error {
	path := s.sourcePath
	s.emit(path, StageMerge, StatusWorking, nil, 0)

	idx := s.timer.Begin("merge")
	st, err := s.linker.Merge(s.fileCtx, s.source)
	s.timer.End(idx, path)
	s.d.stats.Merge.Add(st)
	s.source = nil

	if err != nil {
		diag.ReportWarning(s.reporter, diag.LinkMergeFailed, diag.Location{Path: path}, err.Error())
		s.endFile(err)
		return fmt.Errorf("%s: %w", path, err)
	}
	s.d.stats.Files = append(s.d.stats.Files, path)
	s.endFile(nil)
	return nil
}

// endFile closes the file span and samples memory.
func (s *session) endFile(err error) {
	s.mem.Sample()
	status := StatusDone
	if err != nil {
		status = StatusError
	}
	if s.fileSpan != nil {
		s.fileSpan.Count("nodes", s.merged.Live()).End(errDetail(err))
	}
	s.emit(s.sourcePath, StageMerge, status, err, time.Since(s.fileStart))
	s.source, s.sourcePath, s.fileCtx, s.fileSpan = nil, "", nil, nil
}
