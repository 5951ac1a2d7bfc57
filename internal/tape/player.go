package tape

import "fmt"

// Player walks a parsed tape one command at a time.
type Player struct {
	commands []Command
	index    int
}

// NewPlayer starts at the first command.
func NewPlayer(commands []Command) *Player {
	return &Player{commands: commands}
}

// Next returns the next command and advances, or false at the end.
func (p *Player) Next() (*Command, bool) {
	if p.index >= len(p.commands) {
		return nil, false
	}
	cmd := &p.commands[p.index]
	p.index++
	return cmd, true
}

// Done reports whether every command has been handed out.
func (p *Player) Done() bool { return p.index >= len(p.commands) }

// Rewind starts over from the first command.
func (p *Player) Rewind() { p.index = 0 }

// Total returns the number of commands.
func (p *Player) Total() int { return len(p.commands) }

// Progress is the share of commands handed out, 0 to 100.
func (p *Player) Progress() int {
	if len(p.commands) == 0 {
		return 100
	}
	return p.index * 100 / len(p.commands)
}

// Step describes the last command handed out, e.g. "3/10 (line 7)".
func (p *Player) Step() string {
	if p.index == 0 {
		return fmt.Sprintf("0/%d", len(p.commands))
	}
	cmd := p.commands[p.index-1]
	return fmt.Sprintf("%d/%d (line %d)", p.index, len(p.commands), cmd.Line)
}
