package tape

// TokenType represents the type of a token in a .tape file
type TokenType string

const (
	// Special tokens
	TOKEN_EOF     TokenType = "EOF"
	TOKEN_ILLEGAL TokenType = "ILLEGAL"
	TOKEN_NEWLINE TokenType = "NEWLINE"

	// Literals
	TOKEN_STRING     TokenType = "STRING"
	TOKEN_NUMBER     TokenType = "NUMBER"
	TOKEN_DURATION   TokenType = "DURATION"
	TOKEN_IDENTIFIER TokenType = "IDENTIFIER"

	// Symbols
	TOKEN_AT TokenType = "AT"

	// Commands - Setup
	TOKEN_CONTAINER TokenType = "Container"
	TOKEN_SLEEP     TokenType = "Sleep"

	// Commands - Window lifecycle
	TOKEN_CREATE          TokenType = "Create"
	TOKEN_CLOSE           TokenType = "Close"
	TOKEN_FOCUS           TokenType = "Focus"
	TOKEN_MINIMIZE        TokenType = "Minimize"
	TOKEN_MAXIMIZE        TokenType = "Maximize"
	TOKEN_RESTORE         TokenType = "Restore"
	TOKEN_TOGGLE_MAXIMIZE TokenType = "ToggleMaximize"
	TOKEN_RENAME          TokenType = "Rename"
	TOKEN_TITLE           TokenType = "Title"
	TOKEN_PLACE           TokenType = "Place"

	// Commands - Pointer
	TOKEN_PRESS   TokenType = "Press"
	TOKEN_MOVE    TokenType = "Move"
	TOKEN_RELEASE TokenType = "Release"

	// Commands - Snapshots
	TOKEN_SAVE TokenType = "Save"
	TOKEN_LOAD TokenType = "Load"

	// Commands - Assertions
	TOKEN_EXPECT TokenType = "Expect"
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// IsCommand returns true if the token type starts a command
func (tt TokenType) IsCommand() bool {
	switch tt {
	case TOKEN_CONTAINER, TOKEN_SLEEP,
		TOKEN_CREATE, TOKEN_CLOSE, TOKEN_FOCUS, TOKEN_MINIMIZE, TOKEN_MAXIMIZE,
		TOKEN_RESTORE, TOKEN_TOGGLE_MAXIMIZE, TOKEN_RENAME, TOKEN_TITLE, TOKEN_PLACE,
		TOKEN_PRESS, TOKEN_MOVE, TOKEN_RELEASE,
		TOKEN_SAVE, TOKEN_LOAD,
		TOKEN_EXPECT:
		return true
	}
	return false
}

// KeywordTokenMap maps string keywords to token types
var KeywordTokenMap = map[string]TokenType{
	// Setup
	"Container": TOKEN_CONTAINER,
	"Sleep":     TOKEN_SLEEP,

	// Window lifecycle
	"Create":         TOKEN_CREATE,
	"Close":          TOKEN_CLOSE,
	"Focus":          TOKEN_FOCUS,
	"Minimize":       TOKEN_MINIMIZE,
	"Maximize":       TOKEN_MAXIMIZE,
	"Restore":        TOKEN_RESTORE,
	"ToggleMaximize": TOKEN_TOGGLE_MAXIMIZE,
	"Rename":         TOKEN_RENAME,
	"Title":          TOKEN_TITLE,
	"Place":          TOKEN_PLACE,

	// Pointer
	"Press":   TOKEN_PRESS,
	"Move":    TOKEN_MOVE,
	"Release": TOKEN_RELEASE,

	// Snapshots
	"Save": TOKEN_SAVE,
	"Load": TOKEN_LOAD,

	// Assertions
	"Expect": TOKEN_EXPECT,
}

// LookupKeyword returns the token type for a keyword, or TOKEN_IDENTIFIER if not a keyword
func LookupKeyword(ident string) TokenType {
	if tt, ok := KeywordTokenMap[ident]; ok {
		return tt
	}
	return TOKEN_IDENTIFIER
}
