package db

import (
	"bytes"
	"testing"
)

func TestSimpleTableRender(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)
	table.Header([]string{"id", "name"})
	table.Bulk([][]string{
		{"1", "Alice"},
		{"2", "Bob"},
	})
	table.Render()

	expected := "+----+-------+\n" +
		"| id | name  |\n" +
		"+----+-------+\n" +
		"| 1  | Alice |\n" +
		"| 2  | Bob   |\n" +
		"+----+-------+\n"
	if buf.String() != expected {
		t.Errorf("unexpected rendering:\n%s\nexpected:\n%s", buf.String(), expected)
	}
}

func TestSimpleTableRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf).Render()
	if buf.Len() != 0 {
		t.Errorf("empty table should render nothing, got %q", buf.String())
	}
}

func TestSimpleTableShortRowPadsCells(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf)
	table.Header([]string{"a", "b"})
	table.Row([]string{"only"})
	table.Render()

	expected := "+------+---+\n" +
		"| a    | b |\n" +
		"+------+---+\n" +
		"| only |   |\n" +
		"+------+---+\n"
	if buf.String() != expected {
		t.Errorf("unexpected rendering:\n%s\nexpected:\n%s", buf.String(), expected)
	}
}
