package output

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
)

// Trace is a named series of run durations in microseconds.
type Trace struct {
	Name   string  `json:"name"`
	Micros []int64 `json:"micros"`
}

// NewTrace converts durations to a microsecond trace.
func NewTrace(name string, durations []time.Duration) Trace {
	micros := make([]int64, len(durations))
	for i, d := range durations {
		micros[i] = d.Microseconds()
	}
	return Trace{Name: name, Micros: micros}
}

// Durations converts the trace back to durations.
func (t Trace) Durations() []time.Duration {
	out := make([]time.Duration, len(t.Micros))
	for i, us := range t.Micros {
		out[i] = time.Duration(us) * time.Microsecond
	}
	return out
}

// WriteCSV writes one record per trace: the name followed by every run in
// microseconds.
func WriteCSV(w io.Writer, traces []Trace) error {
	cw := csv.NewWriter(w)
	for _, t := range traces {
		record := make([]string, 0, len(t.Micros)+1)
		record = append(record, t.Name)
		for _, us := range t.Micros {
			record = append(record, strconv.FormatInt(us, 10))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses traces written by WriteCSV.
func ReadCSV(r io.Reader) ([]Trace, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var traces []Trace
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return traces, nil
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		t := Trace{Name: strings.TrimSpace(record[0])}
		if t.Name == "" {
			return nil, fmt.Errorf("line %d: trace name is empty", line)
		}
		for i, field := range record[1:] {
			field = strings.TrimSpace(field)
			if field == "" {
				continue
			}
			us, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, run %d: %w", line, i+1, err)
			}
			t.Micros = append(t.Micros, us)
		}
		traces = append(traces, t)
	}
}

// ImportCSV reads every trace in a CSV file.
func ImportCSV(path string) ([]Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	traces, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return traces, nil
}

// MergeTraces imports every extra file and appends current after them.
func MergeTraces(current Trace, extraFiles []string) ([]Trace, error) {
	var traces []Trace
	for _, path := range extraFiles {
		imported, err := ImportCSV(path)
		if err != nil {
			return nil, err
		}
		traces = append(traces, imported...)
	}
	return append(traces, current), nil
}

// ExportCSV writes traces to base with a .csv extension and returns the path
// written. The write is atomic and serialized through a sibling lock file so
// concurrent sessions targeting one file do not interleave.
func ExportCSV(base string, traces []Trace) (string, error) {
	path := withExtension(base, ".csv")

	var buf bytes.Buffer
	if err := WriteCSV(&buf, traces); err != nil {
		return "", fmt.Errorf("encode csv: %w", err)
	}
	if err := writeLocked(path, &buf); err != nil {
		return "", err
	}
	return path, nil
}

func writeLocked(path string, r io.Reader) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	if err := atomic.WriteFile(path, r); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func withExtension(base, ext string) string {
	if strings.HasSuffix(strings.ToLower(base), ext) {
		return base
	}
	return base + ext
}
