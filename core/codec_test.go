package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		name     string
		typ      ColumnType
		in       Value
		expected Value
	}{
		{"int from int", IntType, NewInt(42), NewInt(42)},
		{"int from text", IntType, NewStr("42"), NewInt(42)},
		{"int from negative text", IntType, NewStr("-7"), NewInt(-7)},
		{"str from str", StrType, NewStr("hello"), NewStr("hello")},
		{"str from int", StrType, NewInt(5), NewStr("5")},
		{"str from date", StrType, NewDate(Date{1990, 4, 10}), NewStr("1990-04-10")},
		{"date from text", DateType, NewStr("1990-04-10"), NewDate(Date{1990, 4, 10})},
		{"date from date", DateType, NewDate(Date{2020, 1, 2}), NewDate(Date{2020, 1, 2})},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Coerce(test.typ, test.in)
			if err != nil {
				t.Fatalf("Coerce(%s, %v) failed: %v", test.typ, test.in, err)
			}
			if got != test.expected {
				t.Errorf("Coerce(%s, %v) = %v, expected %v", test.typ, test.in, got, test.expected)
			}
		})
	}
}

func TestCoerceTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  ColumnType
		in   Value
	}{
		{"int from non-numeric text", IntType, NewStr("abc")},
		{"int from date", IntType, NewDate(Date{2020, 1, 2})},
		{"int from null", IntType, Null()},
		{"str from null", StrType, Null()},
		{"date from bad text", DateType, NewStr("10-04-1990")},
		{"date from partial text", DateType, NewStr("1990-04")},
		{"date from int", DateType, NewInt(19900410)},
		{"date from null", DateType, Null()},
		{"unknown column type", ColumnType(99), NewStr("x")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Coerce(test.typ, test.in)
			if err == nil {
				t.Fatalf("Coerce(%s, %v) succeeded, expected TypeError", test.typ, test.in)
			}
			var typeErr *TypeError
			if !errors.As(err, &typeErr) {
				t.Errorf("expected *TypeError, got %T: %v", err, err)
			}
		})
	}
}

func TestValidateRow(t *testing.T) {
	schema := NewSchema([]Column{
		{Name: "id", Type: IntType},
		{Name: "name", Type: StrType},
		{Name: "birth", Type: DateType},
	})

	row, err := ValidateRow(schema, Row{
		"id":    NewStr("1"),
		"name":  NewStr("Alice"),
		"birth": NewStr("1990-04-10"),
	})
	if err != nil {
		t.Fatalf("ValidateRow failed: %v", err)
	}

	expected := Row{
		"id":    NewInt(1),
		"name":  NewStr("Alice"),
		"birth": NewDate(Date{1990, 4, 10}),
	}
	if !reflect.DeepEqual(row, expected) {
		t.Errorf("ValidateRow = %v, expected %v", row, expected)
	}
}

func TestValidateRowMissingColumn(t *testing.T) {
	schema := NewSchema([]Column{
		{Name: "id", Type: IntType},
		{Name: "name", Type: StrType},
	})

	_, err := ValidateRow(schema, Row{"id": NewInt(1)})
	if err == nil {
		t.Fatal("expected MissingColumnError for absent column")
	}
	var missing *MissingColumnError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingColumnError, got %T: %v", err, err)
	}
	if missing.Column != "name" {
		t.Errorf("expected missing column name, got %s", missing.Column)
	}
}

func TestValidateRowDropsExtraKeys(t *testing.T) {
	schema := NewSchema([]Column{{Name: "id", Type: IntType}})

	row, err := ValidateRow(schema, Row{
		"id":    NewInt(1),
		"extra": NewStr("ignored"),
	})
	if err != nil {
		t.Fatalf("ValidateRow failed: %v", err)
	}
	if _, ok := row["extra"]; ok {
		t.Error("extra key should have been dropped")
	}
	if len(row) != 1 {
		t.Errorf("expected 1 column, got %d", len(row))
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("1990-04-10")
	if err != nil {
		t.Fatalf("ParseDate failed: %v", err)
	}
	if d != (Date{1990, 4, 10}) {
		t.Errorf("ParseDate = %v", d)
	}
	if d.String() != "1990-04-10" {
		t.Errorf("Date.String() = %s", d.String())
	}

	if _, err := ParseDate("1990-13-01"); err == nil {
		t.Error("expected error for month 13")
	}
}
