package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"sort"
	"strconv"
	"sync"

	vegeta "github.com/tsenart/vegeta/v12/lib"

	"github.com/rubenvp8510/ticket-load-generator/internal/client"
)

// maxFailureMessages bounds the distinct failure messages kept per request name
const maxFailureMessages = 100

type sampleStats struct {
	successes       uint64
	failures        uint64
	failureMessages map[string]int
	droppedMessages uint64
	metrics         vegeta.Metrics
}

// Samples aggregates request samples by request name. It is safe for concurrent use.
type Samples struct {
	mu     sync.Mutex
	byName map[string]*sampleStats
}

// SampleSummary is a point-in-time view of one request name
type SampleSummary struct {
	Name            string         `json:"name"`
	Successes       uint64         `json:"successes"`
	Failures        uint64         `json:"failures"`
	FailureMessages map[string]int `json:"failureMessages,omitempty"`
	DroppedMessages uint64         `json:"droppedMessages,omitempty"`
	Metrics         vegeta.Metrics `json:"metrics"`
}

// NewSamples creates an empty sample set
func NewSamples() *Samples {
	return &Samples{byName: make(map[string]*sampleStats)}
}

// Add records one sample. A non-empty failure marks the sample failed.
func (s *Samples) Add(name string, res client.Result, failure string) {
	vr := &vegeta.Result{
		Attack:    name,
		Code:      uint16(res.StatusCode),
		Timestamp: res.Timestamp,
		Latency:   res.Latency,
		BytesOut:  uint64(res.BytesOut),
		BytesIn:   uint64(res.BytesIn),
		Method:    res.Method,
		URL:       res.URL,
	}
	if failure != "" {
		// Group by status so the error list stays small; the annotated message is counted below.
		vr.Error = failureKind(res.StatusCode)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byName[name]
	if !ok {
		st = &sampleStats{failureMessages: make(map[string]int)}
		s.byName[name] = st
	}
	st.metrics.Add(vr)

	if failure == "" {
		st.successes++
		return
	}
	st.failures++
	if _, seen := st.failureMessages[failure]; seen || len(st.failureMessages) < maxFailureMessages {
		st.failureMessages[failure]++
	} else {
		st.droppedMessages++
	}
}

// Get returns the summary for one request name
func (s *Samples) Get(name string) (SampleSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byName[name]
	if !ok {
		return SampleSummary{Name: name}, false
	}
	return summarize(name, st), true
}

// Snapshot returns summaries for all request names sorted by name
func (s *Samples) Snapshot() []SampleSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SampleSummary, 0, len(s.byName))
	for name, st := range s.byName {
		out = append(out, summarize(name, st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func summarize(name string, st *sampleStats) SampleSummary {
	st.metrics.Close()
	m := st.metrics
	m.StatusCodes = maps.Clone(st.metrics.StatusCodes)
	m.Errors = append([]string(nil), st.metrics.Errors...)
	return SampleSummary{
		Name:            name,
		Successes:       st.successes,
		Failures:        st.failures,
		FailureMessages: maps.Clone(st.failureMessages),
		DroppedMessages: st.droppedMessages,
		Metrics:         m,
	}
}

// Report writes all summaries as text or JSON
func (s *Samples) Report(w io.Writer, format string) error {
	summaries := s.Snapshot()

	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	for i := range summaries {
		sum := &summaries[i]
		if _, err := fmt.Fprintf(w, "== %s  successes=%d failures=%d\n", sum.Name, sum.Successes, sum.Failures); err != nil {
			return err
		}
		if err := vegeta.NewTextReporter(&sum.Metrics).Report(w); err != nil {
			return err
		}
		for _, msg := range topMessages(sum.FailureMessages, 10) {
			if _, err := fmt.Fprintf(w, "  %6d  %s\n", sum.FailureMessages[msg], msg); err != nil {
				return err
			}
		}
		if sum.DroppedMessages > 0 {
			if _, err := fmt.Fprintf(w, "  %6d  (other failures)\n", sum.DroppedMessages); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

func topMessages(counts map[string]int, n int) []string {
	msgs := make([]string, 0, len(counts))
	for msg := range counts {
		msgs = append(msgs, msg)
	}
	sort.Slice(msgs, func(i, j int) bool {
		if counts[msgs[i]] != counts[msgs[j]] {
			return counts[msgs[i]] > counts[msgs[j]]
		}
		return msgs[i] < msgs[j]
	})
	if len(msgs) > n {
		msgs = msgs[:n]
	}
	return msgs
}

func failureKind(statusCode int) string {
	if statusCode == 0 {
		return "transport error"
	}
	return "status " + strconv.Itoa(statusCode)
}
