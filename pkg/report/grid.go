package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Grid flattens the report into equal-width rows for tabular writers.
//
// Column 0 holds the label and columns 1..N the months. Column N+1 holds the
// summary value, N+2 the projection or scoring metric name, N+3 the metric
// value and N+4 the score. A blank row separates the summary and scoring zones.
func (r *Report) Grid() [][]Cell {
	n := r.Months()
	width := r.Width()
	newRow := func(label string) []Cell {
		row := make([]Cell, width)
		if label != "" {
			row[0] = Text(label)
		}
		return row
	}

	grid := make([][]Cell, 0, 2+len(r.Monthly)+len(r.Summary)+len(r.Scoring))

	header := newRow("")
	copy(header[1:], r.Header)
	grid = append(grid, header)

	for _, m := range r.Monthly {
		row := newRow(m.Label)
		copy(row[1:], m.Values)
		grid = append(grid, row)
	}

	for _, s := range r.Summary {
		row := newRow(s.Label)
		row[n+1] = s.Value
		row[n+2] = s.Projection
		grid = append(grid, row)
	}

	grid = append(grid, newRow(""))

	for _, s := range r.Scoring {
		row := newRow("")
		row[n+2] = Text(s.Metric)
		row[n+3] = s.Value
		row[n+4] = s.Score
		grid = append(grid, row)
	}
	return grid
}

// Checksum returns the SHA-256 of the rendered grid. Identical ledgers and
// configurations produce identical checksums.
func (r *Report) Checksum() string {
	h := sha256.New()
	for _, row := range r.Grid() {
		for i, c := range row {
			if i > 0 {
				h.Write([]byte{'\t'})
			}
			fmt.Fprintf(h, "%d:%s", c.Kind, c.String())
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Format renders the grid as an aligned text table for previews.
// Unimplemented cells show as "n/a".
func (r *Report) Format() string {
	grid := r.Grid()
	text := make([][]string, len(grid))
	widths := make([]int, r.Width())
	for i, row := range grid {
		text[i] = make([]string, len(row))
		for j, c := range row {
			s := c.String()
			if c.Kind == CellUnimplemented {
				s = "n/a"
			}
			text[i][j] = s
			if w := utf8.RuneCountInString(s); w > widths[j] {
				widths[j] = w
			}
		}
	}

	var sb strings.Builder
	for i, row := range text {
		var line strings.Builder
		for j, s := range row {
			if j > 0 {
				line.WriteString("  ")
			}
			pad := strings.Repeat(" ", widths[j]-utf8.RuneCountInString(s))
			if grid[i][j].Kind == CellNumber {
				line.WriteString(pad)
				line.WriteString(s)
			} else {
				line.WriteString(s)
				line.WriteString(pad)
			}
		}
		sb.WriteString(strings.TrimRight(line.String(), " "))
		sb.WriteString("\n")
	}
	return sb.String()
}
