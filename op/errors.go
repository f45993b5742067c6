package op

import "fmt"

// ColumnExistsError reports an attempt to add a column that the table
// already has.
type ColumnExistsError struct {
	Table  string
	Column string
}

func (e *ColumnExistsError) Error() string {
	return fmt.Sprintf("table %s already has column %s", e.Table, e.Column)
}
