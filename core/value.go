package core

import (
	"fmt"
	"strconv"
	"time"
)

// Date is a calendar date with no time or zone component.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

type ValueKind int

const (
	NullValue ValueKind = iota
	IntValue
	StrValue
	DateValue
)

// Value is a typed scalar held in a row. Values are plain comparable
// structs: two values are equal iff their kinds and payloads are equal,
// so coerced values compare with ==.
type Value struct {
	Kind ValueKind `json:"kind"`
	Int  int64     `json:"int,omitempty"`
	Str  string    `json:"str,omitempty"`
	Date Date      `json:"date,omitzero"`
}

// Null is the distinguished unset marker used to backfill rows when a
// column is added. It is not a coerced value of any column type.
func Null() Value {
	return Value{Kind: NullValue}
}

func NewInt(i int64) Value {
	return Value{Kind: IntValue, Int: i}
}

func NewStr(s string) Value {
	return Value{Kind: StrValue, Str: s}
}

func NewDate(d Date) Value {
	return Value{Kind: DateValue, Date: d}
}

func (v Value) IsNull() bool {
	return v.Kind == NullValue
}

// String renders the value for display and audit details.
func (v Value) String() string {
	switch v.Kind {
	case NullValue:
		return "NULL"
	case IntValue:
		return strconv.FormatInt(v.Int, 10)
	case StrValue:
		return v.Str
	case DateValue:
		return v.Date.String()
	default:
		return fmt.Sprintf("Value(kind=%d)", v.Kind)
	}
}

// Row maps column names to typed values. Rows are independent value
// copies; a validated row carries exactly its table's schema columns.
type Row map[string]Value

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Assignment is one column = value pair of an UPDATE SET list.
// Assignments are ordered and applied one at a time.
type Assignment struct {
	Column string
	Value  Value
}
