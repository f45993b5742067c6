package core

type ColumnType int

const (
	IntType ColumnType = iota
	StrType
	DateType
)

func (t ColumnType) String() string {
	switch t {
	case IntType:
		return "INT"
	case StrType:
		return "STR"
	case DateType:
		return "DATE"
	default:
		return "UNKNOWN"
	}
}

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Schema is an ordered set of columns. Column names are unique and
// case-sensitive. Columns may be added but never removed.
type Schema struct {
	Columns []Column `json:"columns"`
}

func NewSchema(columns []Column) Schema {
	return Schema{Columns: columns}
}

// Lookup returns the declared type of the named column.
func (s *Schema) Lookup(name string) (ColumnType, bool) {
	for _, col := range s.Columns {
		if col.Name == name {
			return col.Type, true
		}
	}
	return 0, false
}

func (s *Schema) Has(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

func (s *Schema) Add(col Column) {
	s.Columns = append(s.Columns, col)
}

// Identity identifies the authenticated principal for a session.
type Identity struct {
	Username string `json:"username"`
}
