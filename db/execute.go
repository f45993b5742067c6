package db

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/aetherdb/aetherdb/core"
	"github.com/aetherdb/aetherdb/op"
	"github.com/aetherdb/aetherdb/sql"
)

// Execute parses and runs a single statement. Parsing happens outside
// the engine lock; each dispatched operation locks on its own, so a
// statement is applied atomically or not at all.
func (engine *Engine) Execute(query string) (Result, error) {
	parser := sql.NewParser(query)
	statement, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	switch statement.Type() {
	case sql.SelectType:
		return engine.executeSelectStatement(statement.(sql.SelectStatement))
	case sql.InsertType:
		return engine.executeInsertStatement(statement.(sql.InsertStatement))
	case sql.UpdateType:
		return engine.executeUpdateStatement(statement.(sql.UpdateStatement))
	case sql.DeleteType:
		return engine.executeDeleteStatement(statement.(sql.DeleteStatement))
	case sql.CreateTableType:
		return engine.executeCreateTableStatement(statement.(sql.CreateTableStatement))
	case sql.RenameTableType:
		return engine.executeRenameTableStatement(statement.(sql.RenameTableStatement))
	case sql.AddColumnType:
		return engine.executeAddColumnStatement(statement.(sql.AddColumnStatement))
	default:
		return nil, &UnsupportedOperationError{Kind: fmt.Sprintf("%T", statement)}
	}
}

func (engine *Engine) executeSelectStatement(statement sql.SelectStatement) (QueryResult, error) {
	startTime := time.Now()

	columns, data, err := engine.selectProjected(statement.Table, statement.Columns, toFilters(statement.Where))
	if err != nil {
		return QueryResult{}, err
	}

	return QueryResult{
		Columns:          columns,
		Data:             data,
		RecordsRead:      len(data),
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

// selectProjected runs the select and projects the requested columns
// under one lock, so the projection cannot see a schema from a later
// statement.
func (engine *Engine) selectProjected(table string, columns []string, filters core.Row) ([]string, [][]string, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	t, err := engine.requireTable(table, op.PermRead, "select")
	if err != nil {
		return nil, nil, err
	}
	for _, column := range columns {
		if !t.Schema.Has(column) {
			return nil, nil, &core.MissingColumnError{Column: column}
		}
	}

	rows := t.Select(filters)
	data := make([][]string, len(rows))
	for i, row := range rows {
		data[i] = make([]string, len(columns))
		for j, column := range columns {
			data[i][j] = row[column].String()
		}
	}
	engine.record("select", table)
	return columns, data, nil
}

func (engine *Engine) executeInsertStatement(statement sql.InsertStatement) (CommitResult, error) {
	startTime := time.Now()

	row := make(core.Row, len(statement.Columns))
	for index, column := range statement.Columns {
		row[column] = classifyLiteral(statement.Values[index])
	}

	if err := engine.Insert(statement.Table, row); err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		RecordsWritten:   1,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

func (engine *Engine) executeUpdateStatement(statement sql.UpdateStatement) (CommitResult, error) {
	startTime := time.Now()

	assignments := make([]core.Assignment, len(statement.Updates))
	for i, update := range statement.Updates {
		assignments[i] = core.Assignment{
			Column: update.Column,
			Value:  classifyLiteral(update.Value),
		}
	}

	count, err := engine.Update(statement.Table, toFilters(statement.Where), assignments)
	if err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		RecordsUpdated:   count,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

func (engine *Engine) executeDeleteStatement(statement sql.DeleteStatement) (CommitResult, error) {
	startTime := time.Now()

	count, err := engine.Delete(statement.Table, toFilters(statement.Where))
	if err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		RecordsDeleted:   count,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

func (engine *Engine) executeCreateTableStatement(statement sql.CreateTableStatement) (CommitResult, error) {
	startTime := time.Now()

	if err := engine.CreateTable(statement.Table, statement.Columns); err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		TablesCreated:    1,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

func (engine *Engine) executeRenameTableStatement(statement sql.RenameTableStatement) (CommitResult, error) {
	startTime := time.Now()

	if err := engine.RenameTable(statement.Table, statement.NewName); err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		TablesAltered:    1,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

func (engine *Engine) executeAddColumnStatement(statement sql.AddColumnStatement) (CommitResult, error) {
	startTime := time.Now()

	if err := engine.AddColumn(statement.Table, statement.Column); err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		TablesAltered:    1,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

func toFilters(conditions []sql.Condition) core.Row {
	if len(conditions) == 0 {
		return nil
	}
	filters := make(core.Row, len(conditions))
	for _, condition := range conditions {
		filters[condition.Column] = classifyLiteral(condition.Value)
	}
	return filters
}

var (
	intPattern  = regexp.MustCompile(`^-?\d+$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// classifyLiteral types a raw literal by shape: integer text becomes an
// INT, YYYY-MM-DD text a DATE, anything else a STR. Quoting does not
// matter; '42' and 42 classify the same, and coercion against the
// target column decides the final type either way.
func classifyLiteral(literal sql.Literal) core.Value {
	if intPattern.MatchString(literal.Text) {
		if n, err := strconv.ParseInt(literal.Text, 10, 64); err == nil {
			return core.NewInt(n)
		}
	}
	if datePattern.MatchString(literal.Text) {
		if d, err := core.ParseDate(literal.Text); err == nil {
			return core.NewDate(d)
		}
	}
	return core.NewStr(literal.Text)
}
