package tape

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CommandType represents the type of a tape command
type CommandType string

const (
	// Setup
	CommandType_Container CommandType = "Container"
	CommandType_Sleep     CommandType = "Sleep"

	// Window lifecycle
	CommandType_Create         CommandType = "Create"
	CommandType_Close          CommandType = "Close"
	CommandType_Focus          CommandType = "Focus"
	CommandType_Minimize       CommandType = "Minimize"
	CommandType_Maximize       CommandType = "Maximize"
	CommandType_Restore        CommandType = "Restore"
	CommandType_ToggleMaximize CommandType = "ToggleMaximize"
	CommandType_Rename         CommandType = "Rename"
	CommandType_Title          CommandType = "Title"
	CommandType_Place          CommandType = "Place"

	// Pointer
	CommandType_Press   CommandType = "Press"
	CommandType_Move    CommandType = "Move"
	CommandType_Release CommandType = "Release"

	// Snapshots
	CommandType_Save CommandType = "Save"
	CommandType_Load CommandType = "Load"

	// Assertions
	CommandType_Expect CommandType = "Expect"
)

// Press targets
const (
	TargetTitle   = "title"
	TargetContent = "content"
	TargetEdge    = "edge"
	TargetCell    = "cell"
)

// Press modifiers
const (
	ModAlt       = "alt"
	ModSecondary = "secondary"
	ModTouch     = "touch"
)

// Expect checks
const (
	ExpectFocus     = "focus"
	ExpectRect      = "rect"
	ExpectCount     = "count"
	ExpectMinimized = "minimized"
	ExpectMaximized = "maximized"
	ExpectGone      = "gone"
)

// Command represents a parsed tape command
type Command struct {
	Type   CommandType
	Args   []string      // Command arguments
	Delay  time.Duration // Delay after this command
	Line   int           // Source line number
	Column int           // Source column number
}

// String returns the command as it would be written in a tape file
func (c *Command) String() string {
	var sb strings.Builder
	sb.WriteString(string(c.Type))
	for _, a := range c.Args {
		sb.WriteByte(' ')
		sb.WriteString(quoteArg(a))
	}
	if c.Delay > 0 && c.Type != CommandType_Sleep {
		fmt.Fprintf(&sb, " @%s", c.Delay)
	}
	return sb.String()
}

// Float returns argument i as a number.
func (c *Command) Float(i int) (float64, error) {
	if i >= len(c.Args) {
		return 0, c.errorf("missing argument %d", i+1)
	}
	v, err := strconv.ParseFloat(c.Args[i], 64)
	if err != nil {
		return 0, c.errorf("argument %d: %q is not a number", i+1, c.Args[i])
	}
	return v, nil
}

// Floats returns n numeric arguments starting at i.
func (c *Command) Floats(i, n int) ([]float64, error) {
	out := make([]float64, n)
	for k := range out {
		v, err := c.Float(i + k)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (c *Command) errorf(format string, args ...any) error {
	return &ParseError{Line: c.Line, Column: c.Column, Msg: fmt.Sprintf("%s: %s", c.Type, fmt.Sprintf(format, args...))}
}

// ParseError is a syntax or runtime error tied to a script position.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Msg)
}

// ParseDuration parses a duration string (e.g., "500ms", "1s")
func ParseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}

// quoteArg quotes arguments that would not lex back as one identifier,
// number or duration.
func quoteArg(s string) string {
	if s == "" {
		return `""`
	}
	toks := Tokenize(s)
	if len(toks) == 2 && toks[1].Type == TOKEN_EOF && toks[0].Literal == s &&
		(toks[0].Type == TOKEN_IDENTIFIER || toks[0].Type == TOKEN_NUMBER || toks[0].Type == TOKEN_DURATION) {
		return s
	}
	return strconv.Quote(s)
}
