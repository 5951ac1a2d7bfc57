package tape

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kilodown/deskwm/internal/geometry"
)

// Format renders commands as a tape file, one command per line.
func Format(commands []Command) string {
	var sb strings.Builder
	for i := range commands {
		sb.WriteString(commands[i].String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteScript writes commands to w with an optional header comment.
func WriteScript(w io.Writer, header string, commands []Command) error {
	var sb strings.Builder
	for _, line := range strings.Split(header, "\n") {
		if line != "" {
			sb.WriteString("# " + line + "\n")
		}
	}
	if sb.Len() > 0 {
		sb.WriteByte('\n')
	}
	sb.WriteString(Format(commands))
	_, err := io.WriteString(w, sb.String())
	return err
}

// rectArgs formats a rect as four arguments, trimmed to two decimals.
func rectArgs(r geometry.Rect) []string {
	return []string{num(r.Left), num(r.Top), num(r.Width), num(r.Height)}
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
