package db

import (
	"fmt"
	"os"
	"strings"
)

type ResultType int

const (
	QueryResultType ResultType = iota
	CommitResultType
)

type Result interface {
	Type() ResultType
	Display()
}

// QueryResult carries the rows of a SELECT, already projected and
// rendered as text.
type QueryResult struct {
	Columns          []string
	Data             [][]string
	RecordsRead      int
	ExecutionTimeSec float64
}

// CommitResult summarizes a mutating statement.
type CommitResult struct {
	TablesCreated    int
	TablesAltered    int
	RecordsWritten   int
	RecordsUpdated   int
	RecordsDeleted   int
	ExecutionTimeSec float64
}

func (result QueryResult) Type() ResultType {
	return QueryResultType
}

func (result CommitResult) Type() ResultType {
	return CommitResultType
}

func formatDuration(secs float64) string {
	switch {
	case secs < 0.001:
		return "<1ms"
	case secs < 1:
		ms := secs * 1000
		if ms < 10 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	case secs < 10:
		return fmt.Sprintf("%.1fs", secs)
	default:
		return fmt.Sprintf("%ds", int(secs))
	}
}

func (result QueryResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result CommitResult) ExecutionTime() string {
	return formatDuration(result.ExecutionTimeSec)
}

func (result QueryResult) Display() {
	if len(result.Data) > 0 {
		table := NewTable(os.Stdout)
		table.Header(result.Columns)
		table.Bulk(result.Data)
		table.Render()
	}
	fmt.Printf("%d rows (%s)\n", result.RecordsRead, result.ExecutionTime())
}

func (result CommitResult) Display() {
	var parts []string

	if result.TablesCreated > 0 {
		parts = append(parts, fmt.Sprintf("%d table(s) created", result.TablesCreated))
	}
	if result.TablesAltered > 0 {
		parts = append(parts, fmt.Sprintf("%d table(s) altered", result.TablesAltered))
	}
	if result.RecordsWritten > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) written", result.RecordsWritten))
	}
	if result.RecordsUpdated > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) updated", result.RecordsUpdated))
	}
	if result.RecordsDeleted > 0 {
		parts = append(parts, fmt.Sprintf("%d record(s) deleted", result.RecordsDeleted))
	}

	if len(parts) == 0 {
		fmt.Printf("OK (%s)\n", result.ExecutionTime())
	} else {
		fmt.Printf("%s (%s)\n", strings.Join(parts, ", "), result.ExecutionTime())
	}
}
