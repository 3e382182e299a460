package barsched

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	boff "github.com/Andrej220/go-utils/backoff"
	lg "github.com/Andrej220/go-utils/zlog"
	"go.uber.org/multierr"
)

var (
	orderHeader  = []string{"PatronId", "DrinkName", "ArrivalTime", "FirstServiceTime", "CompletionTime", "ExecutionTime", "TurnaroundTime", "WaitingTime", "ResponseTime"}
	patronHeader = []string{"PatronId", "TotalWaitingTime", "ResponseTime", "Turnaround", "DrinksCompleted"}
)

// Report is the finalized statistics of one run.
//
// It is a value: nothing in it changes after the server returns it.
type Report struct {
	Policy      PolicyKind
	SwitchDelay time.Duration
	Quantum     time.Duration
	Interrupts  int

	Orders  []OrderRecord // completed orders, arrival order
	Patrons []PatronStats // patrons with at least one completion

	Elapsed   time.Duration
	Idle      time.Duration
	Completed int
}

// CPUUtilization is the busy share of the run in percent, in [0, 100].
func (r Report) CPUUtilization() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	u := float64(r.Elapsed-r.Idle) / float64(r.Elapsed) * 100
	switch {
	case u < 0:
		return 0
	case u > 100:
		return 100
	}
	return u
}

// Throughput is completed orders per second.
func (r Report) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Completed) / r.Elapsed.Seconds()
}

// TotalWaiting sums the waiting time of every patron.
func (r Report) TotalWaiting() time.Duration {
	var total time.Duration
	for _, p := range r.Patrons {
		total += p.TotalWaiting
	}
	return total
}

// WriteCSV renders the report: the order table, the patron table and
// the summary block. Timestamps are milliseconds since the epoch,
// durations are milliseconds.
func (r Report) WriteCSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	cw := csv.NewWriter(bw)

	if err := cw.Write(orderHeader); err != nil {
		return err
	}
	for _, o := range r.Orders {
		row := []string{
			strconv.Itoa(o.PatronID),
			o.Drink,
			msStamp(o.Arrival),
			msStamp(o.FirstService),
			msStamp(o.Completion),
			ms(o.ExecutionTime),
			ms(o.Turnaround()),
			ms(o.Waiting()),
			ms(o.Response()),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	fmt.Fprint(bw, "\nPatron Level Statistics:\n")
	if err := cw.Write(patronHeader); err != nil {
		return err
	}
	for _, p := range r.Patrons {
		row := []string{
			strconv.Itoa(p.PatronID),
			ms(p.TotalWaiting),
			ms(p.Response()),
			ms(p.Turnaround()),
			strconv.Itoa(p.DrinksCompleted),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}

	fmt.Fprint(bw, "\nStats Summary:\n")
	fmt.Fprintf(bw, "Total Time: %s ms\n", ms(r.Elapsed))
	fmt.Fprintf(bw, "Total Waiting Time: %s ms\n", ms(r.TotalWaiting()))
	fmt.Fprintf(bw, "CPU Utilization: %s%%\n", strconv.FormatFloat(r.CPUUtilization(), 'f', -1, 64))
	fmt.Fprintf(bw, "Throughput: %s orders/second\n", strconv.FormatFloat(r.Throughput(), 'f', -1, 64))
	fmt.Fprintf(bw, "Context Switch Time: %s ms\n", ms(r.SwitchDelay))
	if r.Policy == RR {
		fmt.Fprintf(bw, "Time Quantum: %s ms\n", ms(r.Quantum))
	}
	return bw.Flush()
}

// WriteReportFile writes r to path, creating the parent directory.
// Failed attempts are retried with exponential backoff according to rp;
// the returned error carries every attempt's failure.
func WriteReportFile(ctx context.Context, path string, r Report, rp RetryPolicy) error {
	rp = rp.withDefaults()
	logger := lg.FromContext(ctx).With(lg.String("path", path))
	bo := boff.New(rp.Initial, rp.Max, time.Now().UnixNano())

	var errs error
	for attempt := 1; attempt <= rp.Attempts; attempt++ {
		err := writeReportOnce(path, r)
		if err == nil {
			logger.Info("report written", lg.Int("orders", len(r.Orders)), lg.Int("attempt", attempt))
			return nil
		}
		errs = multierr.Append(errs, fmt.Errorf("attempt %d: %w", attempt, err))
		if attempt == rp.Attempts {
			break
		}

		delay := bo.Next()
		logger.Warn("report write failed; backing off",
			lg.Int("attempt", attempt),
			lg.String("sleep", delay.String()),
			lg.Any("error", err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			errs = multierr.Append(errs, ctx.Err())
			return fmt.Errorf("barsched: write report %s: %w", path, errs)
		}
	}
	return fmt.Errorf("barsched: write report %s: %w", path, errs)
}

func writeReportOnce(path string, r Report) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, f.Close()) }()
	return r.WriteCSV(f)
}

func ms(d time.Duration) string { return strconv.FormatInt(d.Milliseconds(), 10) }

func msStamp(t time.Time) string { return strconv.FormatInt(t.UnixMilli(), 10) }
