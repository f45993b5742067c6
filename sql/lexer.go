package sql

type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

type TokenType int

const (
	Identifier TokenType = iota
	Int
	String
	Comma
	ParenOpen
	ParenClose
	Equals
	Create
	Table
	Insert
	Into
	Values
	Select
	From
	Where
	Update
	Set
	Delete
	Alter
	Rename
	To
	Add
	Column
	EOF
	Unknown
)

func (token Token) String() string {
	switch token.Type {
	case Identifier:
		return "Identifier(" + token.Value + ")"
	case Int:
		return "Int(" + token.Value + ")"
	case String:
		return "String(" + token.Value + ")"
	case Comma:
		return "Comma"
	case ParenOpen:
		return "ParenOpen"
	case ParenClose:
		return "ParenClose"
	case Equals:
		return "Equals"
	case Create:
		return "Create"
	case Table:
		return "Table"
	case Insert:
		return "Insert"
	case Into:
		return "Into"
	case Values:
		return "Values"
	case Select:
		return "Select"
	case From:
		return "From"
	case Where:
		return "Where"
	case Update:
		return "Update"
	case Set:
		return "Set"
	case Delete:
		return "Delete"
	case Alter:
		return "Alter"
	case Rename:
		return "Rename"
	case To:
		return "To"
	case Add:
		return "Add"
	case Column:
		return "Column"
	case EOF:
		return "EOF"
	default:
		return "Unknown(" + token.Value + ")"
	}
}

// Lexer scans a statement one byte at a time. Keywords are matched
// case-insensitively; identifiers and string literals keep their case.
type Lexer struct {
	input        string
	position     int
	readPosition int
	ch           byte
}

func NewLexer(input string) *Lexer {
	lexer := &Lexer{input: input}
	lexer.readChar()
	return lexer
}

func (lexer *Lexer) readChar() {
	if lexer.readPosition >= len(lexer.input) {
		lexer.ch = 0
	} else {
		lexer.ch = lexer.input[lexer.readPosition]
	}
	lexer.position = lexer.readPosition
	lexer.readPosition++
}

func (lexer *Lexer) NextToken() Token {
	lexer.skipWhitespace()

	pos := lexer.position
	var token Token

	switch lexer.ch {
	case ',':
		token = Token{Type: Comma, Value: string(lexer.ch), Pos: pos}
	case '(':
		token = Token{Type: ParenOpen, Value: string(lexer.ch), Pos: pos}
	case ')':
		token = Token{Type: ParenClose, Value: string(lexer.ch), Pos: pos}
	case '=':
		token = Token{Type: Equals, Value: string(lexer.ch), Pos: pos}
	case 0:
		token = Token{Type: EOF, Value: "", Pos: pos}
	case '\'', '"':
		str, ok := lexer.readString(lexer.ch)
		if !ok {
			return Token{Type: Unknown, Value: str, Pos: pos}
		}
		token = Token{Type: String, Value: str, Pos: pos}
	default:
		if isDigit(lexer.ch) || (lexer.ch == '-' && isDigit(lexer.peekChar())) {
			return Token{Type: Int, Value: lexer.readNumber(), Pos: pos}
		} else if isAlphaNumeric(lexer.ch) {
			literal := lexer.readIdentifier()
			return Token{Type: lookupIdentifier(literal), Value: literal, Pos: pos}
		}
		token = Token{Type: Unknown, Value: string(lexer.ch), Pos: pos}
	}

	lexer.readChar()
	return token
}

// PeekToken returns the next token without consuming it.
func (lexer *Lexer) PeekToken() Token {
	savedPosition := lexer.position
	savedReadPosition := lexer.readPosition
	savedCh := lexer.ch

	token := lexer.NextToken()

	lexer.position = savedPosition
	lexer.readPosition = savedReadPosition
	lexer.ch = savedCh

	return token
}

func (lexer *Lexer) skipWhitespace() {
	for lexer.ch == ' ' || lexer.ch == '\t' || lexer.ch == '\n' || lexer.ch == '\r' {
		lexer.readChar()
	}
}

func (lexer *Lexer) peekChar() byte {
	if lexer.readPosition >= len(lexer.input) {
		return 0
	}
	return lexer.input[lexer.readPosition]
}

func (lexer *Lexer) readIdentifier() string {
	position := lexer.position
	for isAlphaNumeric(lexer.ch) {
		lexer.readChar()
	}
	return lexer.input[position:lexer.position]
}

// readString reads a literal delimited by the given quote byte. The
// second return value is false when the closing quote is missing.
func (lexer *Lexer) readString(quote byte) (string, bool) {
	lexer.readChar()
	position := lexer.position
	for lexer.ch != quote && lexer.ch != 0 {
		lexer.readChar()
	}
	return lexer.input[position:lexer.position], lexer.ch == quote
}

func (lexer *Lexer) readNumber() string {
	position := lexer.position
	if lexer.ch == '-' {
		lexer.readChar()
	}
	for isDigit(lexer.ch) {
		lexer.readChar()
	}
	return lexer.input[position:lexer.position]
}

func isAlphaNumeric(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || ch == '_' || isDigit(ch)
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func lookupIdentifier(id string) TokenType {
	switch toUpper(id) {
	case "CREATE":
		return Create
	case "TABLE":
		return Table
	case "INSERT":
		return Insert
	case "INTO":
		return Into
	case "VALUES":
		return Values
	case "SELECT":
		return Select
	case "FROM":
		return From
	case "WHERE":
		return Where
	case "UPDATE":
		return Update
	case "SET":
		return Set
	case "DELETE":
		return Delete
	case "ALTER":
		return Alter
	case "RENAME":
		return Rename
	case "TO":
		return To
	case "ADD":
		return Add
	case "COLUMN":
		return Column
	default:
		return Identifier
	}
}

// toUpper uppercases ASCII without allocating when already uppercase.
func toUpper(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 'a' && s[i] <= 'z' {
			b := make([]byte, len(s))
			for j := 0; j < len(s); j++ {
				if s[j] >= 'a' && s[j] <= 'z' {
					b[j] = s[j] - 32
				} else {
					b[j] = s[j]
				}
			}
			return string(b)
		}
	}
	return s
}
