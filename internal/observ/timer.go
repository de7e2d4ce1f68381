package observ

import "time"

// Phase is one timed step of a link: loading a file, merging it, saving.
type Phase struct {
	Name  string
	Note  string
	Start time.Time
	Dur   time.Duration
}

// Timer records phases in the order they start. A name repeats once per
// input file, so reports carry both the raw phases and per-name stages.
type Timer struct {
	phases []Phase
	now    func() time.Time
}

func NewTimer() *Timer { return &Timer{now: time.Now} }

// Begin opens a phase and returns the index End takes.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End closes the phase at idx; unknown indexes are ignored.
func (t *Timer) End(idx int, note string) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Note = note
}

type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// StageReport sums the phases sharing a name.
type StageReport struct {
	Name       string  `json:"name"`
	Runs       int     `json:"runs"`
	DurationMS float64 `json:"duration_ms"`
}

type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
	Stages  []StageReport `json:"stages"`
}

// Stage returns the stage called name, if any phase had it.
func (r Report) Stage(name string) (StageReport, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageReport{}, false
}

// Report lists the phases and aggregates them into stages in first-seen order.
func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	r := Report{Phases: make([]PhaseReport, len(t.phases))}
	stage := make(map[string]int)
	var total time.Duration
	for i, p := range t.phases {
		total += p.Dur
		ms := millis(p.Dur)
		r.Phases[i] = PhaseReport{Name: p.Name, DurationMS: ms, Note: p.Note}
		j, ok := stage[p.Name]
		if !ok {
			j = len(r.Stages)
			stage[p.Name] = j
			r.Stages = append(r.Stages, StageReport{Name: p.Name})
		}
		r.Stages[j].Runs++
		r.Stages[j].DurationMS += ms
	}
	r.TotalMS = millis(total)
	return r
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
