// Package sql parses the restricted SQL dialect accepted by the engine.
//
// The dialect covers CREATE TABLE, INSERT, SELECT, UPDATE, DELETE and
// the two ALTER TABLE forms RENAME TO and ADD COLUMN. WHERE clauses are
// comma-separated column = value conditions combined with AND; there is
// no OR, no comparison operators other than equality, and no wildcard
// column list.
//
// # Usage
//
//	statement, err := sql.Parse("SELECT id, name FROM users WHERE id = 1")
//	if err != nil {
//		var syntaxErr *sql.SyntaxError
//		if errors.As(err, &syntaxErr) {
//			fmt.Println(syntaxErr.Pos, syntaxErr.Msg)
//		}
//	}
//
//	switch s := statement.(type) {
//	case sql.SelectStatement:
//		fmt.Println(s.Table, s.Columns)
//	}
//
// Parsed literals stay textual: the parser records the raw text and
// whether it was quoted, and leaves typing to the engine, which coerces
// against the target table's schema.
package sql
