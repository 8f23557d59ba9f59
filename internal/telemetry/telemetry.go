package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"sandfall/internal/sims/sand"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// StepRecord is one row of per-step telemetry.
type StepRecord struct {
	Run        int     `csv:"run"`
	Seed       int64   `csv:"seed"`
	Tick       uint64  `csv:"tick"`
	Live       int     `csv:"live"`
	Visited    int     `csv:"visited"`
	Moved      int     `csv:"moved"`
	Swapped    int     `csv:"swapped"`
	Killed     int     `csv:"killed"`
	DurationUS float64 `csv:"duration_us"`
}

// NewStepRecord builds a record from the stats of a finished step.
func NewStepRecord(run int, seed int64, s sand.StepStats, d time.Duration) StepRecord {
	return StepRecord{
		Run:        run,
		Seed:       seed,
		Tick:       s.Tick,
		Live:       s.Live,
		Visited:    s.Visited,
		Moved:      s.Moved,
		Swapped:    s.Swapped,
		Killed:     s.Killed,
		DurationUS: float64(d.Nanoseconds()) / 1e3,
	}
}

// Writer appends StepRecords as CSV, writing the header once.
type Writer struct {
	w             io.Writer
	closer        io.Closer
	headerWritten bool
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// CreateFile creates dir/name and returns a Writer over it.
func CreateFile(dir, name string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &Writer{w: f, closer: f}, nil
}

// Write appends records.
func (tw *Writer) Write(records []StepRecord) error {
	if tw == nil || len(records) == 0 {
		return nil
	}
	if !tw.headerWritten {
		if err := gocsv.Marshal(records, tw.w); err != nil {
			return fmt.Errorf("writing telemetry: %w", err)
		}
		tw.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, tw.w); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// Close closes the underlying file, if the Writer owns one.
func (tw *Writer) Close() error {
	if tw == nil || tw.closer == nil {
		return nil
	}
	return tw.closer.Close()
}

// ReadRecords parses CSV written by Writer.
func ReadRecords(r io.Reader) ([]StepRecord, error) {
	var records []StepRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("reading telemetry: %w", err)
	}
	return records, nil
}

// Summary aggregates a set of step records.
type Summary struct {
	Steps          int
	MeanDurationUS float64
	StdDurationUS  float64
	P95DurationUS  float64
	MaxDurationUS  float64
	MeanLive       float64
	TotalMoved     int
	TotalSwapped   int
	TotalKilled    int
}

// Summarize computes duration and population statistics.
func Summarize(records []StepRecord) Summary {
	s := Summary{Steps: len(records)}
	if len(records) == 0 {
		return s
	}
	durations := make([]float64, len(records))
	live := make([]float64, len(records))
	for i, r := range records {
		durations[i] = r.DurationUS
		live[i] = float64(r.Live)
		s.TotalMoved += r.Moved
		s.TotalSwapped += r.Swapped
		s.TotalKilled += r.Killed
	}
	s.MeanDurationUS, s.StdDurationUS = stat.MeanStdDev(durations, nil)
	if len(records) == 1 {
		s.StdDurationUS = 0
	}
	s.MeanLive = stat.Mean(live, nil)

	sort.Float64s(durations)
	s.P95DurationUS = stat.Quantile(0.95, stat.Empirical, durations, nil)
	s.MaxDurationUS = durations[len(durations)-1]
	return s
}
