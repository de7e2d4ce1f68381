// Package driver runs a link: it loads the input graphs one at a time,
// merges each into the merged graph and writes the result.
//
// A link is a small state machine:
//
//	INIT -> LOAD_NEXT -> INDEX_IF_FIRST -> MERGE_FILE -> (LOAD_NEXT | FINALIZE) -> DONE
//
// Only one source graph is alive at a time. It is dropped as soon as its
// merge finishes, so memory stays near one input plus the merged graph.
package driver

import (
	"context"
	"fmt"
	"time"

	"asglink/internal/asg"
	"asglink/internal/diag"
	"asglink/internal/identity"
	"asglink/internal/linker"
	"asglink/internal/observ"
	"asglink/internal/trace"
)

const defaultMaxDiagnostics = 1000

type state uint8

const (
	stateInit state = iota
	stateLoadNext
	stateIndexIfFirst
	stateMergeFile
	stateFinalize
	stateDone
)

func (s state) String() string {
	switch s {
	case stateInit:
		return "INIT"
	case stateLoadNext:
		return "LOAD_NEXT"
	case stateIndexIfFirst:
		return "INDEX_IF_FIRST"
	case stateMergeFile:
		return "MERGE_FILE"
	case stateFinalize:
		return "FINALIZE"
	case stateDone:
		return "DONE"
	default:
		return "state(" + fmt.Sprint(uint8(s)) + ")"
	}
}

// Driver links input graphs into one output file. A Driver can run Link
// more than once; each call starts from scratch.
type Driver struct {
	opts  Options
	bag   *diag.Bag
	stats Stats
}

func New(opts Options) *Driver {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = defaultMaxDiagnostics
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Driver{opts: opts, bag: diag.NewBag(opts.MaxDiagnostics)}
}

// Diagnostics returns what the last Link reported.
func (d *Driver) Diagnostics() *diag.Bag { return d.bag }

// Stats returns the statistics of the last Link.
func (d *Driver) Stats() Stats { return d.stats }

// session is the state of one Link call.
type session struct {
	d        *Driver
	ctx      context.Context
	tracer   trace.Tracer
	spanID   uint64
	reporter diag.Reporter
	queue    *inputQueue
	timer    *observ.Timer
	mem      observ.MemSampler

	merged *asg.Graph
	index  *identity.Index
	linker *linker.Linker

	// the file between LOAD_NEXT and the end of MERGE_FILE
	source     *asg.Graph
	sourcePath string
	fileCtx    context.Context
	fileSpan   *trace.Span
	fileStart  time.Time

	skipped int
}

// Link merges paths, plus every extra dependency they declare, into
// Options.Output. The returned error is set for LoadError and SaveError and
// for fatal merge errors and cancellation; LoadWarning comes with a nil
// error and warnings in Diagnostics.
func (d *Driver) Link(ctx context.Context, paths []string) (code ErrorCode, err error) {
	start := time.Now()
	d.stats = Stats{}
	d.bag = diag.NewBag(d.opts.MaxDiagnostics)

	s := &session{
		d:        d,
		tracer:   trace.FromContext(ctx),
		reporter: diag.NewDedupReporter(diag.BagReporter{Bag: d.bag}),
		queue:    newInputQueue(),
		timer:    observ.NewTimer(),
	}
	var span *trace.Span
	s.ctx, span = trace.Start(ctx, trace.ScopeDriver, "link")
	s.spanID = span.ID()

	defer func() {
		d.stats.Skipped = s.skipped
		d.stats.PeakRSS = s.mem.Peak()
		d.stats.Elapsed = time.Since(start)
		d.stats.Timings = s.timer.Report()
		if d.opts.Timings {
			appendTimingDiagnostic(s.reporter, d.opts.Output, d.stats.Timings)
		}
		span.Count("loaded", d.stats.Loaded).
			WithExtra("code", code.String()).
			End(errDetail(err))
		s.emit("", StageFinalize, finalStatus(code, err), err, d.stats.Elapsed)
	}()

	st := stateInit
	for st != stateDone {
		trace.Point(s.tracer, trace.ScopeDriver, st.String(), s.spanID, "")
		switch st {
		case stateInit:
			if err = s.init(paths); err != nil {
				return LoadError, err
			}
			st = stateLoadNext
		case stateLoadNext:
			if err = s.ctx.Err(); err != nil {
				return LoadError, err
			}
			loaded, more := s.loadNext()
			switch {
			case loaded:
				st = stateIndexIfFirst
			case more:
				st = stateLoadNext
			case d.stats.Loaded == 0:
				err = fmt.Errorf("no input graph could be loaded (%d skipped)", s.skipped)
				diag.ReportWarning(s.reporter, diag.LinkNoInputs, diag.Location{Path: d.opts.Output}, err.Error())
				return LoadError, err
			default:
				st = stateFinalize
			}
		case stateIndexIfFirst:
			if d.stats.Loaded == 1 {
				if err = s.indexMerged(); err != nil {
					s.endFile(err)
					return LoadError, err
				}
			}
			st = stateMergeFile
		case stateMergeFile:
			if err = s.mergeFile(); err != nil {
				return LoadError, err
			}
			st = stateLoadNext
		case stateFinalize:
			if code, err = s.finalize(); err != nil {
				return code, err
			}
			st = stateDone
		}
	}
	if s.skipped > 0 {
		return LoadWarning, nil
	}
	return Ok, nil
}

func finalStatus(code ErrorCode, err error) Status {
	if err != nil || code == LoadError || code == SaveError {
		return StatusError
	}
	return StatusDone
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (s *session) emit(file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if s.d.opts.Sink == nil {
		return
	}
	s.d.opts.Sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
