package tape

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kilodown/deskwm/internal/desktop"
)

// Parser parses .tape files into commands
type Parser struct {
	lexer   *Lexer
	curTok  Token
	peekTok Token
	errors  []error
}

// NewParser creates a new parser from a lexer
func NewParser(l *Lexer) *Parser {
	p := &Parser{lexer: l}
	p.nextToken()
	p.nextToken()
	return p
}

// nextToken advances to the next token
func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.lexer.NextToken()
}

// Parse parses the entire tape file and returns all commands
func (p *Parser) Parse() []Command {
	var commands []Command

	for p.curTok.Type != TOKEN_EOF {
		// Skip newlines
		if p.curTok.Type == TOKEN_NEWLINE {
			p.nextToken()
			continue
		}

		cmd, ok := p.parseCommand()
		if ok {
			commands = append(commands, cmd)
		}
		p.skipToNextLine()
	}

	return commands
}

// parseCommand parses a single line: a keyword, its arguments and an
// optional @<duration> delay.
func (p *Parser) parseCommand() (Command, bool) {
	cmd := Command{
		Type:   CommandType(p.curTok.Type),
		Line:   p.curTok.Line,
		Column: p.curTok.Column,
	}

	if !p.curTok.Type.IsCommand() {
		p.addError(fmt.Sprintf("unknown command %q", p.curTok.Literal))
		return cmd, false
	}
	p.nextToken() // consume keyword

	for p.curTok.Type != TOKEN_NEWLINE && p.curTok.Type != TOKEN_EOF {
		switch p.curTok.Type {
		case TOKEN_STRING, TOKEN_IDENTIFIER, TOKEN_NUMBER, TOKEN_DURATION:
			cmd.Args = append(cmd.Args, p.curTok.Literal)
		case TOKEN_AT:
			p.nextToken()
			if p.curTok.Type != TOKEN_DURATION {
				p.addError("expected duration after @")
				return cmd, false
			}
			d, err := ParseDuration(p.curTok.Literal)
			if err != nil {
				p.addError(fmt.Sprintf("invalid duration: %s", p.curTok.Literal))
				return cmd, false
			}
			cmd.Delay = d
		default:
			p.addError(fmt.Sprintf("%s: unexpected %s %q", cmd.Type, p.curTok.Type, p.curTok.Literal))
			return cmd, false
		}
		p.nextToken()
	}

	if err := validate(&cmd); err != nil {
		p.errors = append(p.errors, err)
		return cmd, false
	}
	return cmd, true
}

// validate checks argument counts and kinds per command.
func validate(cmd *Command) error {
	n := len(cmd.Args)
	arity := func(allowed ...int) error {
		for _, a := range allowed {
			if n == a {
				return nil
			}
		}
		return cmd.errorf("expected %s arguments, got %d", joinInts(allowed), n)
	}
	numbers := func(from, count int) error {
		_, err := cmd.Floats(from, count)
		return err
	}

	switch cmd.Type {
	case CommandType_Container:
		if err := arity(2); err != nil {
			return err
		}
		return numbers(0, 2)

	case CommandType_Sleep:
		if err := arity(1); err != nil {
			return err
		}
		d, err := ParseDuration(cmd.Args[0])
		if err != nil {
			return cmd.errorf("invalid duration: %s", cmd.Args[0])
		}
		cmd.Delay = d
		return nil

	case CommandType_Create:
		switch n {
		case 1, 2:
			return nil
		case 5:
			return numbers(1, 4)
		case 6:
			return numbers(2, 4)
		}
		return arity(1, 2, 5, 6)

	case CommandType_Close, CommandType_Focus, CommandType_Minimize, CommandType_Maximize,
		CommandType_ToggleMaximize, CommandType_Save, CommandType_Load:
		return arity(1)

	case CommandType_Restore:
		if err := arity(1, 5); err != nil {
			return err
		}
		if n == 5 {
			return numbers(1, 4)
		}
		return nil

	case CommandType_Rename, CommandType_Title:
		return arity(2)

	case CommandType_Place:
		if err := arity(5); err != nil {
			return err
		}
		return numbers(1, 4)

	case CommandType_Move, CommandType_Release:
		if err := arity(2); err != nil {
			return err
		}
		return numbers(0, 2)

	case CommandType_Press:
		return validatePress(cmd)

	case CommandType_Expect:
		return validateExpect(cmd)
	}
	return cmd.errorf("unsupported command")
}

// validatePress checks: Press <id> title|content <x> <y> [mods] or
// Press <id> edge|cell <dir> <x> <y> [mods].
func validatePress(cmd *Command) error {
	if len(cmd.Args) < 2 {
		return cmd.errorf("expected a window id and a target")
	}
	coords := 2
	switch cmd.Args[1] {
	case TargetTitle, TargetContent:
	case TargetEdge, TargetCell:
		if len(cmd.Args) < 3 || !validDir(cmd.Args[1], cmd.Args[2]) {
			return cmd.errorf("%s needs a direction", cmd.Args[1])
		}
		coords = 3
	default:
		return cmd.errorf("unknown target %q", cmd.Args[1])
	}
	if _, err := cmd.Floats(coords, 2); err != nil {
		return err
	}
	for _, mod := range cmd.Args[coords+2:] {
		switch mod {
		case ModAlt, ModSecondary, ModTouch:
		default:
			return cmd.errorf("unknown modifier %q", mod)
		}
	}
	return nil
}

func validDir(target, dir string) bool {
	switch desktop.Action(dir) {
	case "n", "s", "e", "w", "ne", "nw", "se", "sw":
		return true
	case desktop.ActionCenter:
		return target == TargetCell
	}
	return false
}

func validateExpect(cmd *Command) error {
	if len(cmd.Args) == 0 {
		return cmd.errorf("missing check")
	}
	n := len(cmd.Args) - 1
	switch cmd.Args[0] {
	case ExpectFocus:
		// "Expect focus" with no id asserts nothing is focused
		if n > 1 {
			return cmd.errorf("focus takes at most one window id")
		}
	case ExpectMinimized, ExpectMaximized, ExpectGone:
		if n != 1 {
			return cmd.errorf("%s takes one window id", cmd.Args[0])
		}
	case ExpectCount:
		if n != 1 {
			return cmd.errorf("count takes one number")
		}
		if _, err := strconv.Atoi(cmd.Args[1]); err != nil {
			return cmd.errorf("count %q is not an integer", cmd.Args[1])
		}
	case ExpectRect:
		if n != 5 {
			return cmd.errorf("rect takes a window id and four numbers")
		}
		_, err := cmd.Floats(2, 4)
		return err
	default:
		return cmd.errorf("unknown check %q", cmd.Args[0])
	}
	return nil
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, " or ")
}

// skipToNextLine skips tokens until the next newline
func (p *Parser) skipToNextLine() {
	for p.curTok.Type != TOKEN_NEWLINE && p.curTok.Type != TOKEN_EOF {
		p.nextToken()
	}
}

// addError adds an error at the current token
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{Line: p.curTok.Line, Column: p.curTok.Column, Msg: msg})
}

// Errors returns the parser errors
func (p *Parser) Errors() []error {
	return p.errors
}

// ParseFile parses a tape file from a string. All errors are joined.
func ParseFile(content string) ([]Command, error) {
	p := NewParser(NewLexer(content))
	commands := p.Parse()
	return commands, errors.Join(p.Errors()...)
}
