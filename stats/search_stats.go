package stats

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"
)

// SearchStats collects diagnostics for one search. Nothing in here feeds
// back into move selection.
type SearchStats struct {
	// EvalDurations holds the wall-clock time of every leaf evaluation, in
	// the order the leaves were visited.
	EvalDurations []time.Duration
	// DepthHistogram counts leaves by the depth still remaining when they
	// were evaluated. Index 0 is a leaf at the depth limit; index
	// maxDepth-1 is a leaf directly below the root.
	DepthHistogram []int

	Nodes     int
	Cutoffs   int
	Fallbacks int
	CacheHits uint64
	Elapsed   time.Duration

	latency Statistic
}

// NewSearchStats prepares a collector for a search of the given depth.
func NewSearchStats(maxDepth int) *SearchStats {
	return &SearchStats{
		DepthHistogram: make([]int, max(maxDepth, 1)),
	}
}

// RecordLeaf stores the evaluation time of a leaf and the depth that
// remained when it was reached.
func (s *SearchStats) RecordLeaf(d time.Duration, remainingDepth int) {
	s.EvalDurations = append(s.EvalDurations, d)
	s.latency.Push(float64(d))
	if remainingDepth >= 0 && remainingDepth < len(s.DepthHistogram) {
		s.DepthHistogram[remainingDepth]++
	}
}

// Leaves is the number of evaluated positions.
func (s *SearchStats) Leaves() int {
	return len(s.EvalDurations)
}

// MeanLatency is the mean leaf evaluation time.
func (s *SearchStats) MeanLatency() time.Duration {
	return time.Duration(s.latency.Mean())
}

// LatencyStdev is the sample standard deviation of the leaf evaluation time.
func (s *SearchStats) LatencyStdev() time.Duration {
	return time.Duration(s.latency.Stdev())
}

// LatencyCI returns a confidence interval for the mean leaf latency. The
// confidence is in percent.
func (s *SearchStats) LatencyCI(confidence float64) (time.Duration, time.Duration) {
	lo, hi := ConfidenceInterval(&s.latency, confidence)
	return time.Duration(lo), time.Duration(hi)
}

// LatencyQuantile returns the empirical p-quantile of the leaf evaluation
// times, with p in [0, 1].
func (s *SearchStats) LatencyQuantile(p float64) time.Duration {
	if len(s.EvalDurations) == 0 {
		return 0
	}
	xs := s.latencies()
	slices.Sort(xs)
	return time.Duration(stat.Quantile(p, stat.Empirical, xs, nil))
}

func (s *SearchStats) latencies() []float64 {
	xs := make([]float64, len(s.EvalDurations))
	for i, d := range s.EvalDurations {
		xs[i] = float64(d)
	}
	return xs
}

// LatencyHistogram draws the leaf latencies (in microseconds) as a unicode
// histogram.
func (s *SearchStats) LatencyHistogram(w io.Writer, bins, width int) error {
	if len(s.EvalDurations) == 0 {
		_, err := fmt.Fprintln(w, "no leaves evaluated")
		return err
	}
	us := s.latencies()
	for i := range us {
		us[i] /= float64(time.Microsecond)
	}
	return histogram.Fprint(w, histogram.Hist(bins, us), histogram.Linear(width))
}

// String is a multi-line summary suitable for a terminal.
func (s *SearchStats) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "elapsed: %s\n", s.Elapsed)
	fmt.Fprintf(&sb, "nodes: %d  leaves: %d  cutoffs: %d  fallbacks: %d  cache hits: %d\n",
		s.Nodes, s.Leaves(), s.Cutoffs, s.Fallbacks, s.CacheHits)
	if s.Leaves() > 0 {
		lo, hi := s.LatencyCI(95)
		fmt.Fprintf(&sb, "leaf latency: mean %s  stdev %s  95%% CI [%s, %s]\n",
			s.MeanLatency(), s.LatencyStdev(), lo, hi)
		fmt.Fprintf(&sb, "leaf latency: p50 %s  p90 %s  p99 %s  max %s\n",
			s.LatencyQuantile(0.5), s.LatencyQuantile(0.9), s.LatencyQuantile(0.99),
			time.Duration(s.latency.Max()))
	}
	sb.WriteString("leaves by remaining depth:")
	for d, n := range s.DepthHistogram {
		fmt.Fprintf(&sb, " %d:%d", d, n)
	}
	sb.WriteString("\n")
	return sb.String()
}

func (s *SearchStats) MarshalZerologObject(e *zerolog.Event) {
	e.Dur("elapsed", s.Elapsed).
		Int("nodes", s.Nodes).
		Int("leaves", s.Leaves()).
		Int("cutoffs", s.Cutoffs).
		Int("fallbacks", s.Fallbacks).
		Uint64("cache-hits", s.CacheHits).
		Ints("depth-histogram", s.DepthHistogram)
	if s.Leaves() > 0 {
		e.Dur("mean-leaf-latency", s.MeanLatency()).
			Dur("p90-leaf-latency", s.LatencyQuantile(0.9))
	}
}

// Summary is the JSON form of the statistics sent to remote callers.
type Summary struct {
	ElapsedMs      float64 `json:"elapsed_ms"`
	Nodes          int     `json:"nodes"`
	Leaves         int     `json:"leaves"`
	Cutoffs        int     `json:"cutoffs"`
	Fallbacks      int     `json:"fallbacks"`
	CacheHits      uint64  `json:"cache_hits"`
	DepthHistogram []int   `json:"depth_histogram"`
	MeanLeafUs     float64 `json:"mean_leaf_us"`
	P90LeafUs      float64 `json:"p90_leaf_us"`
}

func (s *SearchStats) Summary() Summary {
	sum := Summary{
		ElapsedMs:      float64(s.Elapsed) / float64(time.Millisecond),
		Nodes:          s.Nodes,
		Leaves:         s.Leaves(),
		Cutoffs:        s.Cutoffs,
		Fallbacks:      s.Fallbacks,
		CacheHits:      s.CacheHits,
		DepthHistogram: s.DepthHistogram,
	}
	if sum.Leaves > 0 {
		sum.MeanLeafUs = float64(s.MeanLatency()) / float64(time.Microsecond)
		sum.P90LeafUs = float64(s.LatencyQuantile(0.9)) / float64(time.Microsecond)
	}
	return sum
}
