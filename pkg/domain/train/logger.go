package train

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"sync"
)

const metricMarker = "metric "

// StoringLogger is an io.Writer collecting metrics out of a training log
// stream while forwarding it unchanged.
//
// Lines of the form
//
//	metric <name>=<value>
//
// are recorded; everything else passes through. The latest value wins when
// a metric is reported more than once.
type StoringLogger struct {
	mu      sync.Mutex
	rest    []byte
	metrics map[string]float64
	out     io.Writer
}

// NewStoringLogger creates a StoringLogger forwarding to out.
// out may be nil to collect metrics only.
func NewStoringLogger(out io.Writer) *StoringLogger {
	return &StoringLogger{out: out, metrics: map[string]float64{}}
}

func (s *StoringLogger) Write(p []byte) (int, error) {
	s.mu.Lock()
	s.rest = append(s.rest, p...)
	for {
		line, rest, found := bytes.Cut(s.rest, []byte("\n"))
		if !found {
			break
		}
		s.rest = rest
		s.scan(string(line))
	}
	s.mu.Unlock()

	if s.out != nil {
		return s.out.Write(p)
	}
	return len(p), nil
}

func (s *StoringLogger) scan(line string) {
	expr, ok := strings.CutPrefix(strings.TrimSpace(line), metricMarker)
	if !ok {
		return
	}
	name, value, ok := strings.Cut(expr, "=")
	if !ok {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return
	}
	s.metrics[name] = v
}

// Metrics returns a snapshot of the metrics collected so far.
// A trailing line without newline is taken into account.
func (s *StoringLogger) Metrics() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if 0 < len(s.rest) {
		s.scan(string(s.rest))
		s.rest = nil
	}

	snapshot := make(map[string]float64, len(s.metrics))
	for k, v := range s.metrics {
		snapshot[k] = v
	}
	return snapshot
}
