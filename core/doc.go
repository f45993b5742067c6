// Package core provides core types used throughout AetherDB.
//
// The package defines the column type system, typed values, rows, and
// the coercion rules applied to every value entering a table.
//
// # Column Types
//
// The type set is fixed:
//   - IntType: 64-bit integers
//   - StrType: text
//   - DateType: calendar dates (year, month, day)
//
// # Values and Rows
//
// A Value is a tagged scalar; a Row maps column names to values:
//
//	row := core.Row{
//	    "id":    core.NewInt(1),
//	    "name":  core.NewStr("Alice"),
//	    "birth": core.NewStr("1990-04-10"),
//	}
//
// # Coercion
//
// Coerce converts raw input to the declared column type; ValidateRow
// applies it across a schema. Date text is stored as a calendar date
// after coercion, so predicate equality compares dates, not strings:
//
//	validated, err := core.ValidateRow(schema, row)
package core
