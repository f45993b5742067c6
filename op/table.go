package op

import (
	"github.com/aetherdb/aetherdb/core"
)

// Permissions a user can hold on a table. Admin implies read and write.
const (
	PermRead  = "read"
	PermWrite = "write"
	PermAdmin = "admin"
)

// PermSet is the set of permissions one user holds on one table.
type PermSet map[string]bool

func (s PermSet) Clone() PermSet {
	out := make(PermSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Table is an in-memory table: an ordered schema, a slice of validated
// rows and a per-user ACL. Tables are not safe for concurrent use; the
// engine serializes access.
type Table struct {
	Name   string             `json:"name"`
	Schema core.Schema        `json:"schema"`
	Rows   []core.Row         `json:"rows"`
	ACL    map[string]PermSet `json:"acl"`
}

// NewTable creates an empty table and grants the creator all three
// permissions.
func NewTable(name string, schema core.Schema, creator string) *Table {
	table := &Table{
		Name:   name,
		Schema: schema,
		ACL:    make(map[string]PermSet),
	}
	table.ACL[creator] = PermSet{PermRead: true, PermWrite: true, PermAdmin: true}
	return table
}

// HasPermission reports whether the user holds the permission on this
// table. Holding admin implies every permission.
func (table *Table) HasPermission(user, perm string) bool {
	set, ok := table.ACL[user]
	if !ok {
		return false
	}
	return set[perm] || set[PermAdmin]
}

// Grant adds a permission for the user.
func (table *Table) Grant(user, perm string) {
	set, ok := table.ACL[user]
	if !ok {
		set = make(PermSet)
		table.ACL[user] = set
	}
	set[perm] = true
}

// Revoke removes a permission for the user. Revoking a permission the
// user does not hold is a no-op. A user left with no permissions is
// dropped from the ACL entirely.
func (table *Table) Revoke(user, perm string) {
	set, ok := table.ACL[user]
	if !ok {
		return
	}
	delete(set, perm)
	if len(set) == 0 {
		delete(table.ACL, user)
	}
}

// Insert validates the candidate row against the schema and appends the
// coerced copy.
func (table *Table) Insert(candidate core.Row) error {
	row, err := core.ValidateRow(table.Schema, candidate)
	if err != nil {
		return err
	}
	table.Rows = append(table.Rows, row)
	return nil
}

// Select returns independent copies of the rows matching all filters.
// An empty filter set matches every row.
func (table *Table) Select(filters core.Row) []core.Row {
	coerced := table.coerceFilters(filters)

	var out []core.Row
	for _, row := range table.Rows {
		if matches(row, coerced) {
			out = append(out, row.Clone())
		}
	}
	return out
}

// Update applies the assignments in order to every row matching all
// filters and returns the number of rows matched. Assignments naming a
// column absent from the schema are skipped. Assignments are applied
// one at a time per row, coerce-then-assign; a value that cannot be
// coerced to its column's type aborts the update mid-way.
func (table *Table) Update(filters core.Row, assignments []core.Assignment) (int, error) {
	coerced := table.coerceFilters(filters)

	count := 0
	for _, row := range table.Rows {
		if !matches(row, coerced) {
			continue
		}
		for _, assignment := range assignments {
			columnType, ok := table.Schema.Lookup(assignment.Column)
			if !ok {
				continue
			}
			value, err := core.Coerce(columnType, assignment.Value)
			if err != nil {
				return count, err
			}
			row[assignment.Column] = value
		}
		count++
	}
	return count, nil
}

// Delete removes every row matching all filters and returns the number
// removed. Deleting with filters that match nothing returns zero.
func (table *Table) Delete(filters core.Row) int {
	coerced := table.coerceFilters(filters)

	kept := table.Rows[:0]
	count := 0
	for _, row := range table.Rows {
		if matches(row, coerced) {
			count++
		} else {
			kept = append(kept, row)
		}
	}
	for i := len(kept); i < len(table.Rows); i++ {
		table.Rows[i] = nil
	}
	table.Rows = kept
	return count
}

// AddColumn appends a column to the schema and backfills existing rows
// with the null placeholder.
func (table *Table) AddColumn(column core.Column) error {
	if table.Schema.Has(column.Name) {
		return &ColumnExistsError{Table: table.Name, Column: column.Name}
	}
	table.Schema.Add(column)
	for _, row := range table.Rows {
		row[column.Name] = core.Null()
	}
	return nil
}

// coerceFilters coerces filter values against the schema where
// possible. A filter naming an unknown column, or whose value cannot be
// coerced to the column's type, is kept raw: it can never equal a
// stored coerced value, so the predicate matches nothing.
func (table *Table) coerceFilters(filters core.Row) core.Row {
	if len(filters) == 0 {
		return nil
	}
	out := make(core.Row, len(filters))
	for column, value := range filters {
		columnType, ok := table.Schema.Lookup(column)
		if !ok {
			out[column] = value
			continue
		}
		coerced, err := core.Coerce(columnType, value)
		if err != nil {
			out[column] = value
			continue
		}
		out[column] = coerced
	}
	return out
}

func matches(row core.Row, filters core.Row) bool {
	for column, expected := range filters {
		actual, ok := row[column]
		if !ok || actual != expected {
			return false
		}
	}
	return true
}
