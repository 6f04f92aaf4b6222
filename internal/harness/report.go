package harness

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/scalareval/internal/evaluator"
)

const reportBufferSize = 1 << 20

// Row is one measured grid point.
type Row struct {
	SetSize   int
	SetCount  int
	ProbeSize int
	Result    evaluator.Result
}

// ReportName returns the report file name for one sweep run.
func ReportName(prefix string, threads int, preload bool) string {
	mode := "no_preload"
	if preload {
		mode = "with_preload"
	}
	return fmt.Sprintf("%s_%d-threads_%s.md", prefix, threads, mode)
}

// WriteReport renders rows as Markdown tables. A header block starts the
// report and is repeated whenever the set size changes.
func WriteReport(w io.Writer, rows []Row) error {
	bw := bufio.NewWriterSize(w, reportBufferSize)

	for i, r := range rows {
		if i == 0 || r.SetSize != rows[i-1].SetSize {
			writeHeader(bw, r)
		}
		fmt.Fprintf(bw, "|%14d|%14d|%14d|%s|\n", r.SetCount, r.ProbeSize, r.Result.MatchCount, FormatDuration(r.Result.Duration))
	}

	return bw.Flush()
}

func writeHeader(w *bufio.Writer, r Row) {
	w.WriteString("\n")
	if r.Result.Preloaded {
		w.WriteString("Data preloaded into memory for evaluation.\n")
	} else {
		w.WriteString("Data read directly from file for evalution.\n")
	}
	w.WriteString("\n")
	fmt.Fprintf(w, "Number of threads: %d\n", r.Result.ThreadCount)
	fmt.Fprintf(w, "Number of values in a set: %d\n", r.SetSize)
	w.WriteString("\n")
	fmt.Fprintf(w, "|%-14s|%-14s|%-14s|%-14s|\n", "Sets", "Test set size", "Matching sets", "Duration")
	w.WriteString("|-------------:|-------------:|-------------:|-------------:|\n")
}

// FormatDuration renders d as whole seconds right-aligned in five columns
// and six digits of microseconds, e.g. "    1.000250 s".
func FormatDuration(d time.Duration) string {
	secs := d / time.Second
	micros := (d % time.Second) / time.Microsecond
	return fmt.Sprintf("%5d.%06d s", int64(secs), int64(micros))
}

// ThreadLadder returns 1 followed by doublings capped at maxThreads, ending
// at maxThreads.
func ThreadLadder(maxThreads int) []int {
	ladder := []int{1}
	for last := 1; last < maxThreads; {
		last = min(last*2, maxThreads)
		ladder = append(ladder, last)
	}
	return ladder
}
