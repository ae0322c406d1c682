package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/itchyny/gojq"

	"github.com/c360/tickfifo/pkg/clock"
	"github.com/c360/tickfifo/scenario"
)

// Theme holds the styles for text output. Colors are dropped when the
// writer is not a terminal.
type Theme struct {
	Pass   lipgloss.Style
	Fail   lipgloss.Style
	Name   lipgloss.Style
	Dim    lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
}

func newTheme(w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)
	return Theme{
		Pass:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
		Fail:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5f5f")),
		Name:   r.NewStyle().Bold(true),
		Dim:    r.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		Header: r.NewStyle().Bold(true).Padding(0, 1),
		Cell:   r.NewStyle().Padding(0, 1),
		Border: r.NewStyle().Foreground(lipgloss.Color("#6e7681")),
	}
}

func writeJSON(w io.Writer, reports []*scenario.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// writeQuery runs a jq expression over the reports as a JSON array and
// writes each result on its own line.
func writeQuery(w io.Writer, reports []*scenario.Report, expr string) error {
	query, err := gojq.Parse(expr)
	if err != nil {
		return fmt.Errorf("invalid query %q: %w", expr, err)
	}

	// gojq only accepts plain JSON values. Numbers stay json.Number so
	// 64-bit data keeps every bit.
	data, err := json.Marshal(reports)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var input any
	if err := dec.Decode(&input); err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			return fmt.Errorf("query %q: %w", expr, err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}

func writeText(w io.Writer, reports []*scenario.Report, trace bool) error {
	th := newTheme(w)
	passed := 0

	for _, r := range reports {
		status := th.Fail.Render("FAIL")
		if r.Passed {
			status = th.Pass.Render("PASS")
			passed++
		}

		_, err := fmt.Fprintf(w, "%s  %s  %s\n", status, th.Name.Render(r.Name),
			th.Dim.Render(fmt.Sprintf("width=%d depth=%d ticks=%d writes=%d reads=%d rejected=%d/%d max=%d",
				r.Config.Width, r.Config.Depth, r.Ticks,
				r.Stats.Writes, r.Stats.Reads,
				r.Stats.RejectedWrites, r.Stats.RejectedReads,
				r.Stats.MaxCount)))
		if err != nil {
			return err
		}

		for _, f := range r.Failures {
			if _, err := fmt.Fprintf(w, "      %s\n", f); err != nil {
				return err
			}
		}

		if trace && len(r.Trace) > 0 {
			if _, err := fmt.Fprintln(w, traceTable(th, r.Trace, r.Config.Width)); err != nil {
				return err
			}
		}
	}

	summary := fmt.Sprintf("%d scenarios, %d passed, %d failed", len(reports), passed, len(reports)-passed)
	style := th.Pass
	if passed != len(reports) {
		style = th.Fail
	}
	_, err := fmt.Fprintln(w, style.Render(summary))
	return err
}

// traceTable renders one row per tick: inputs on the left, outputs on the
// right.
func traceTable(th Theme, trace clock.Trace, width int) string {
	digits := (width + 3) / 4
	hex := func(v uint64) string {
		return fmt.Sprintf("0x%0*X", digits, v)
	}
	flag := func(b bool) string {
		if b {
			return "1"
		}
		return "."
	}

	rows := make([][]string, 0, len(trace))
	for _, rec := range trace {
		in, out := rec.Inputs, rec.Outputs
		data := ""
		if in.WriteRequest {
			data = hex(in.WriteData)
		}
		rows = append(rows, []string{
			strconv.FormatUint(rec.Tick, 10),
			flag(in.Reset), flag(in.WriteRequest), data, flag(in.ReadRequest),
			hex(out.ReadData), flag(out.Full), flag(out.Empty), strconv.Itoa(out.Count),
			flag(out.WriteAccepted), flag(out.ReadAccepted),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(th.Border).
		Headers("tick", "rst", "wr", "data", "rd", "read_data", "full", "empty", "count", "w_ok", "r_ok").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return th.Header
			}
			return th.Cell
		}).
		String()
}
