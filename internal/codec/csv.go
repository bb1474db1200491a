// Package codec converts goals to and from the CSV and JSON files used for
// bulk export and import.
package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/educacao-adventista/matriculometro/internal/model"
)

// TimeLayout is ISO-8601 in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// CSVHeader lists the exported columns in order.
var CSVHeader = []string{"id", "category", "target", "achieved", "createdAt", "updatedAt"}

// WriteCSV writes goals with a header row. Fields containing a comma, a double
// quote or a newline are quoted and inner quotes are doubled.
func WriteCSV(w io.Writer, goals []*model.Goal) error {
	cw := csv.NewWriter(w)

	err := cw.Write(CSVHeader)
	if err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, g := range goals {
		record := []string{
			strconv.FormatInt(g.ID, 10),
			g.Category,
			strconv.Itoa(g.Target),
			strconv.Itoa(g.Achieved),
			formatTime(g.CreatedAt),
			formatTime(g.UpdatedAt),
		}
		err = cw.Write(record)
		if err != nil {
			return fmt.Errorf("failed to write csv row for goal %d: %w", g.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// csvRow holds every recognised column of an imported line.
type csvRow struct {
	ID        *int64
	Category  string
	Target    *int
	Achieved  *int
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// ErrNoValidRows is returned when a file has data lines but none of them
// could be read as a goal.
var ErrNoValidRows = errors.New("no valid goal rows found")

// ParseCSV reads goals from CSV text whose first line is a header.
// Lines that are not valid CSV or whose field count differs from the header
// are skipped on their own; a quoted field only spans lines when the quote
// closes on a later line and the joined record fits the header. Only
// category, target and achieved are returned: imported rows always become
// new records.
func ParseCSV(r io.Reader) ([]model.GoalInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	goals := []model.GoalInput{}

	text := strings.TrimPrefix(string(data), "\ufeff")
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return goals, nil
	}

	lines := strings.Split(text, "\n")
	header, err := parseRecord(lines[0])
	if err != nil {
		return goals, nil
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	dataLines := 0
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			continue
		}
		dataLines++

		record, end, ok := nextRecord(lines, i, len(header))
		if !ok {
			slog.Debug("skipping malformed csv line", "line", i+1)
			continue
		}
		i = end

		row := parseRow(header, record)
		if strings.TrimSpace(row.Category) == "" || row.Target == nil || row.Achieved == nil {
			continue
		}

		goals = append(goals, model.GoalInput{
			Category: row.Category,
			Target:   row.Target,
			Achieved: row.Achieved,
		})
	}

	if dataLines > 0 && len(goals) == 0 {
		return nil, ErrNoValidRows
	}

	return goals, nil
}

// nextRecord parses the record starting at lines[start] and returns the index
// of its last line. A line with an unbalanced quote is joined with the
// following lines until the quotes balance.
func nextRecord(lines []string, start, fields int) ([]string, int, bool) {
	joined := lines[start]
	for end := start; end < len(lines); end++ {
		if end > start {
			joined += "\n" + lines[end]
		}
		if strings.Count(joined, `"`)%2 != 0 {
			continue
		}

		record, err := parseRecord(joined)
		if err != nil || len(record) != fields {
			return nil, start, false
		}
		return record, end, true
	}
	return nil, start, false
}

// parseRecord parses text that must hold exactly one CSV record.
func parseRecord(text string) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1

	record, err := cr.Read()
	if err != nil {
		return nil, err
	}

	_, err = cr.Read()
	if err != io.EOF {
		return nil, fmt.Errorf("expected a single record")
	}

	return record, nil
}

func parseRow(header, record []string) csvRow {
	var row csvRow
	for i, name := range header {
		value := record[i]
		if name != "category" {
			value = strings.TrimSpace(value)
		}

		switch {
		case name == "id":
			id, err := strconv.ParseInt(value, 10, 64)
			if err == nil {
				row.ID = &id
			}
		case name == "target":
			row.Target = parseInt(value)
		case name == "achieved":
			row.Achieved = parseInt(value)
		case name == "category":
			row.Category = value
		case strings.Contains(name, "At") && value != "":
			t, err := time.Parse(time.RFC3339Nano, value)
			if err != nil {
				continue
			}
			if name == "createdAt" {
				row.CreatedAt = &t
			} else if name == "updatedAt" {
				row.UpdatedAt = &t
			}
		}
	}
	return row
}

func parseInt(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
