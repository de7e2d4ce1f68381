package driver

import (
	"path/filepath"
)

// inputQueue hands out input paths in order. Every path it has ever held
// stays in the seen-set, so a dependency declared by several files is
// queued once.
type inputQueue struct {
	paths []string
	seen  map[string]struct{}
}

func newInputQueue() *inputQueue {
	return &inputQueue{seen: make(map[string]struct{})}
}

// key identifies a file regardless of how its path was spelled.
func key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Push queues path unless it was seen before.
func (q *inputQueue) Push(path string) bool {
	k := key(path)
	if _, ok := q.seen[k]; ok {
		return false
	}
	q.seen[k] = struct{}{}
	q.paths = append(q.paths, path)
	return true
}

// Mark adds path to the seen-set without queueing it.
func (q *inputQueue) Mark(path string) {
	q.seen[key(path)] = struct{}{}
}

func (q *inputQueue) Pop() (string, bool) {
	if len(q.paths) == 0 {
		return "", false
	}
	p := q.paths[0]
	q.paths = q.paths[1:]
	return p, true
}

func (q *inputQueue) Len() int { return len(q.paths) }

// resolveExtra resolves an extra-dependency path against the directory of
// the file that declared it.
func resolveExtra(declaring, extra string) string {
	if extra == "" || filepath.IsAbs(extra) {
		return extra
	}
	return filepath.Join(filepath.Dir(declaring), extra)
}
