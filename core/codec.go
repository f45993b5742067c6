package core

import "strconv"

// Coerce converts a raw or literal value into a value of the declared
// column type.
//
// INT accepts integer values and base-10 integer text. DATE accepts
// dates and YYYY-MM-DD text, stored as a calendar date rather than the
// original string. STR accepts anything non-null and renders it as
// text. Anything else fails with a TypeError, including the Null
// placeholder: Null is produced only by add-column backfill, never by
// coercion.
func Coerce(columnType ColumnType, v Value) (Value, error) {
	switch columnType {
	case IntType:
		switch v.Kind {
		case IntValue:
			return v, nil
		case StrValue:
			n, err := strconv.ParseInt(v.Str, 10, 64)
			if err != nil {
				return Value{}, &TypeError{Type: columnType, Value: v.String()}
			}
			return NewInt(n), nil
		}
	case StrType:
		switch v.Kind {
		case StrValue:
			return v, nil
		case IntValue:
			return NewStr(strconv.FormatInt(v.Int, 10)), nil
		case DateValue:
			return NewStr(v.Date.String()), nil
		}
	case DateType:
		switch v.Kind {
		case DateValue:
			return v, nil
		case StrValue:
			d, err := ParseDate(v.Str)
			if err != nil {
				return Value{}, &TypeError{Type: columnType, Value: v.String()}
			}
			return NewDate(d), nil
		}
	}
	return Value{}, &TypeError{Type: columnType, Value: v.String()}
}

// ValidateRow checks a candidate row against the schema and returns a
// new row holding one coerced value per schema column.
//
// A schema column absent from the candidate fails with a
// MissingColumnError. Candidate keys that are not schema columns are
// silently dropped, not rejected.
func ValidateRow(schema Schema, candidate Row) (Row, error) {
	out := make(Row, len(schema.Columns))
	for _, col := range schema.Columns {
		raw, ok := candidate[col.Name]
		if !ok {
			return nil, &MissingColumnError{Column: col.Name}
		}
		coerced, err := Coerce(col.Type, raw)
		if err != nil {
			return nil, err
		}
		out[col.Name] = coerced
	}
	return out, nil
}
