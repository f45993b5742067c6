package sql

import (
	"fmt"

	"github.com/aetherdb/aetherdb/core"
)

type StatementType int

const (
	CreateTableType StatementType = iota
	InsertType
	SelectType
	UpdateType
	DeleteType
	RenameTableType
	AddColumnType
)

// Statement is a parsed SQL statement. Concrete statements are tagged
// with a StatementType so the engine can dispatch on them.
type Statement interface {
	Type() StatementType
}

// Literal is a raw value from a statement. Quoted records whether the
// value appeared inside quotes; classification downstream does not
// depend on it.
type Literal struct {
	Text   string
	Quoted bool
	Pos    int
}

// Condition is one column = literal predicate of a WHERE list. All
// conditions of a statement are combined with AND.
type Condition struct {
	Column string
	Value  Literal
}

// SetClause is one column = literal pair of an UPDATE SET list.
type SetClause struct {
	Column string
	Value  Literal
}

type CreateTableStatement struct {
	Table   string
	Columns []core.Column
}

func (statement CreateTableStatement) Type() StatementType {
	return CreateTableType
}

type InsertStatement struct {
	Table   string
	Columns []string
	Values  []Literal
}

func (statement InsertStatement) Type() StatementType {
	return InsertType
}

type SelectStatement struct {
	Table   string
	Columns []string
	Where   []Condition
}

func (statement SelectStatement) Type() StatementType {
	return SelectType
}

type UpdateStatement struct {
	Table   string
	Updates []SetClause
	Where   []Condition
}

func (statement UpdateStatement) Type() StatementType {
	return UpdateType
}

type DeleteStatement struct {
	Table string
	Where []Condition
}

func (statement DeleteStatement) Type() StatementType {
	return DeleteType
}

type RenameTableStatement struct {
	Table   string
	NewName string
}

func (statement RenameTableStatement) Type() StatementType {
	return RenameTableType
}

type AddColumnStatement struct {
	Table  string
	Column core.Column
}

func (statement AddColumnStatement) Type() StatementType {
	return AddColumnType
}

// SyntaxError reports the position and nearby token of a statement that
// does not match the grammar.
type SyntaxError struct {
	Pos  int
	Near string
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Msg)
	}
	return fmt.Sprintf("syntax error at position %d near %q: %s", e.Pos, e.Near, e.Msg)
}

type Parser struct {
	lexer *Lexer
}

func NewParser(input string) *Parser {
	return &Parser{lexer: NewLexer(input)}
}

// Parse reads a single statement and fails if anything but EOF follows.
func (parser *Parser) Parse() (Statement, error) {
	token := parser.lexer.NextToken()

	var statement Statement
	var err error

	switch token.Type {
	case Create:
		statement, err = parser.parseCreateTable()
	case Insert:
		statement, err = parser.parseInsert()
	case Select:
		statement, err = parser.parseSelect()
	case Update:
		statement, err = parser.parseUpdate()
	case Delete:
		statement, err = parser.parseDelete()
	case Alter:
		statement, err = parser.parseAlter()
	default:
		return nil, syntaxError(token, "expected a statement keyword")
	}
	if err != nil {
		return nil, err
	}

	if trailing := parser.lexer.NextToken(); trailing.Type != EOF {
		return nil, syntaxError(trailing, "unexpected input after statement")
	}
	return statement, nil
}

// Parse is a convenience wrapper parsing a single statement string.
func Parse(input string) (Statement, error) {
	return NewParser(input).Parse()
}

func (parser *Parser) parseCreateTable() (Statement, error) {
	if err := parser.expect(Table, "expected TABLE"); err != nil {
		return nil, err
	}

	name, err := parser.parseIdentifier("expected table name")
	if err != nil {
		return nil, err
	}

	if err := parser.expect(ParenOpen, "expected ("); err != nil {
		return nil, err
	}

	var columns []core.Column
	for {
		column, err := parser.parseColumnDefinition()
		if err != nil {
			return nil, err
		}
		columns = append(columns, column)

		token := parser.lexer.NextToken()
		if token.Type == ParenClose {
			break
		}
		if token.Type != Comma {
			return nil, syntaxError(token, "expected , or )")
		}
	}

	return CreateTableStatement{Table: name, Columns: columns}, nil
}

func (parser *Parser) parseColumnDefinition() (core.Column, error) {
	name, err := parser.parseIdentifier("expected column name")
	if err != nil {
		return core.Column{}, err
	}

	token := parser.lexer.NextToken()
	if token.Type != Identifier {
		return core.Column{}, syntaxError(token, "expected column type")
	}
	columnType, ok := parseColumnType(token.Value)
	if !ok {
		return core.Column{}, syntaxError(token, "expected INT, STR or DATE")
	}

	return core.Column{Name: name, Type: columnType}, nil
}

func (parser *Parser) parseInsert() (Statement, error) {
	if err := parser.expect(Into, "expected INTO"); err != nil {
		return nil, err
	}

	name, err := parser.parseIdentifier("expected table name")
	if err != nil {
		return nil, err
	}

	columns, err := parser.parseIdentifierList()
	if err != nil {
		return nil, err
	}

	if err := parser.expect(Values, "expected VALUES"); err != nil {
		return nil, err
	}

	values, err := parser.parseLiteralList()
	if err != nil {
		return nil, err
	}

	if len(columns) != len(values) {
		token := parser.lexer.PeekToken()
		return nil, &SyntaxError{
			Pos: token.Pos,
			Msg: fmt.Sprintf("%d columns but %d values", len(columns), len(values)),
		}
	}

	return InsertStatement{Table: name, Columns: columns, Values: values}, nil
}

func (parser *Parser) parseSelect() (Statement, error) {
	var columns []string
	for {
		column, err := parser.parseIdentifier("expected column name")
		if err != nil {
			return nil, err
		}
		columns = append(columns, column)

		if parser.lexer.PeekToken().Type != Comma {
			break
		}
		parser.lexer.NextToken()
	}

	if err := parser.expect(From, "expected FROM"); err != nil {
		return nil, err
	}

	name, err := parser.parseIdentifier("expected table name")
	if err != nil {
		return nil, err
	}

	where, err := parser.parseWhere()
	if err != nil {
		return nil, err
	}

	return SelectStatement{Table: name, Columns: columns, Where: where}, nil
}

func (parser *Parser) parseUpdate() (Statement, error) {
	name, err := parser.parseIdentifier("expected table name")
	if err != nil {
		return nil, err
	}

	if err := parser.expect(Set, "expected SET"); err != nil {
		return nil, err
	}

	var updates []SetClause
	for {
		column, value, err := parser.parseEquality()
		if err != nil {
			return nil, err
		}
		updates = append(updates, SetClause{Column: column, Value: value})

		if parser.lexer.PeekToken().Type != Comma {
			break
		}
		parser.lexer.NextToken()
	}

	where, err := parser.parseWhere()
	if err != nil {
		return nil, err
	}

	return UpdateStatement{Table: name, Updates: updates, Where: where}, nil
}

func (parser *Parser) parseDelete() (Statement, error) {
	if err := parser.expect(From, "expected FROM"); err != nil {
		return nil, err
	}

	name, err := parser.parseIdentifier("expected table name")
	if err != nil {
		return nil, err
	}

	where, err := parser.parseWhere()
	if err != nil {
		return nil, err
	}

	return DeleteStatement{Table: name, Where: where}, nil
}

func (parser *Parser) parseAlter() (Statement, error) {
	if err := parser.expect(Table, "expected TABLE"); err != nil {
		return nil, err
	}

	name, err := parser.parseIdentifier("expected table name")
	if err != nil {
		return nil, err
	}

	token := parser.lexer.NextToken()
	switch token.Type {
	case Rename:
		if err := parser.expect(To, "expected TO"); err != nil {
			return nil, err
		}
		newName, err := parser.parseIdentifier("expected new table name")
		if err != nil {
			return nil, err
		}
		return RenameTableStatement{Table: name, NewName: newName}, nil
	case Add:
		if err := parser.expect(Column, "expected COLUMN"); err != nil {
			return nil, err
		}
		column, err := parser.parseColumnDefinition()
		if err != nil {
			return nil, err
		}
		return AddColumnStatement{Table: name, Column: column}, nil
	default:
		return nil, syntaxError(token, "expected RENAME or ADD")
	}
}

// parseWhere parses an optional WHERE clause of comma-separated
// column = literal conditions.
func (parser *Parser) parseWhere() ([]Condition, error) {
	if parser.lexer.PeekToken().Type != Where {
		return nil, nil
	}
	parser.lexer.NextToken()

	var conditions []Condition
	for {
		column, value, err := parser.parseEquality()
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, Condition{Column: column, Value: value})

		if parser.lexer.PeekToken().Type != Comma {
			break
		}
		parser.lexer.NextToken()
	}
	return conditions, nil
}

func (parser *Parser) parseEquality() (string, Literal, error) {
	column, err := parser.parseIdentifier("expected column name")
	if err != nil {
		return "", Literal{}, err
	}
	if err := parser.expect(Equals, "expected ="); err != nil {
		return "", Literal{}, err
	}
	value, err := parser.parseLiteral()
	if err != nil {
		return "", Literal{}, err
	}
	return column, value, nil
}

func (parser *Parser) parseIdentifierList() ([]string, error) {
	if err := parser.expect(ParenOpen, "expected ("); err != nil {
		return nil, err
	}

	var identifiers []string
	for {
		identifier, err := parser.parseIdentifier("expected column name")
		if err != nil {
			return nil, err
		}
		identifiers = append(identifiers, identifier)

		token := parser.lexer.NextToken()
		if token.Type == ParenClose {
			break
		}
		if token.Type != Comma {
			return nil, syntaxError(token, "expected , or )")
		}
	}
	return identifiers, nil
}

func (parser *Parser) parseLiteralList() ([]Literal, error) {
	if err := parser.expect(ParenOpen, "expected ("); err != nil {
		return nil, err
	}

	var literals []Literal
	for {
		literal, err := parser.parseLiteral()
		if err != nil {
			return nil, err
		}
		literals = append(literals, literal)

		token := parser.lexer.NextToken()
		if token.Type == ParenClose {
			break
		}
		if token.Type != Comma {
			return nil, syntaxError(token, "expected , or )")
		}
	}
	return literals, nil
}

// parseLiteral accepts a quoted string, an integer, or a bare word.
func (parser *Parser) parseLiteral() (Literal, error) {
	token := parser.lexer.NextToken()
	switch token.Type {
	case String:
		return Literal{Text: token.Value, Quoted: true, Pos: token.Pos}, nil
	case Int, Identifier:
		return Literal{Text: token.Value, Pos: token.Pos}, nil
	default:
		return Literal{}, syntaxError(token, "expected a value")
	}
}

func (parser *Parser) parseIdentifier(msg string) (string, error) {
	token := parser.lexer.NextToken()
	if token.Type != Identifier {
		return "", syntaxError(token, msg)
	}
	return token.Value, nil
}

func (parser *Parser) expect(expected TokenType, msg string) error {
	token := parser.lexer.NextToken()
	if token.Type != expected {
		return syntaxError(token, msg)
	}
	return nil
}

func parseColumnType(s string) (core.ColumnType, bool) {
	switch toUpper(s) {
	case "INT":
		return core.IntType, true
	case "STR":
		return core.StrType, true
	case "DATE":
		return core.DateType, true
	default:
		return 0, false
	}
}

func syntaxError(token Token, msg string) *SyntaxError {
	return &SyntaxError{Pos: token.Pos, Near: token.Value, Msg: msg}
}
