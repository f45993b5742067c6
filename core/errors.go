package core

import "fmt"

// TypeError reports a value that cannot be coerced to a column type.
type TypeError struct {
	Type  ColumnType
	Value string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("cannot coerce %q to %s", e.Value, e.Type)
}

// MissingColumnError reports a schema column absent from a candidate row.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %s required", e.Column)
}
