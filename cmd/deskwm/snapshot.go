package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/kilodown/deskwm/internal/desktop"
	"github.com/kilodown/deskwm/internal/store"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// resolveFormat picks table output for terminals and JSON for pipes when no
// format was requested.
func resolveFormat(format string, w io.Writer) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case formatTable, formatJSON, formatYAML:
		return f, nil
	case "":
		if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			return formatTable, nil
		}
		return formatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or yaml)", format)
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

func openSnapshotStore() (*store.FileStore, error) {
	return openStore(loadConfig())
}

func listSnapshots(w io.Writer, format string) error {
	format, err := resolveFormat(format, w)
	if err != nil {
		return err
	}
	snapshots, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer func() { _ = snapshots.Close() }()

	infos, err := snapshots.List()
	if err != nil {
		return err
	}
	if format != formatTable {
		if infos == nil {
			infos = []store.Info{}
		}
		return encode(w, format, infos)
	}

	if len(infos) == 0 {
		_, err := fmt.Fprintln(w, noteStyle.Render("No snapshots in "+snapshots.Dir()))
		return err
	}
	t := newTable("Key", "Size", "Modified", "Compressed")
	for _, info := range infos {
		t.Row(
			info.Key,
			strconv.FormatInt(info.Size, 10),
			info.Modified.Local().Format("2006-01-02 15:04:05"),
			strconv.FormatBool(info.Compressed),
		)
	}
	_, err = fmt.Fprintln(w, t.Render())
	return err
}

func showSnapshot(w io.Writer, key, format string) error {
	format, err := resolveFormat(format, w)
	if err != nil {
		return err
	}
	snapshots, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer func() { _ = snapshots.Close() }()

	snap, err := snapshots.Load(key)
	if err != nil {
		return err
	}
	if format == formatTable {
		if _, err := fmt.Fprintln(w, titleStyle.Render(key)); err != nil {
			return err
		}
	}
	return printSnapshot(w, snap, format)
}

// printSnapshot writes snap in format. An empty format is resolved from w.
func printSnapshot(w io.Writer, snap desktop.Snapshot, format string) error {
	format, err := resolveFormat(format, w)
	if err != nil {
		return err
	}
	if snap == nil {
		snap = desktop.Snapshot{}
	}
	if format != formatTable {
		return encode(w, format, snap)
	}

	t := newTable("ID", "Title", "Left", "Top", "Width", "Height", "Z", "State")
	for _, e := range snap {
		t.Row(
			e.ID,
			e.Title,
			percent(e.Rect.Left),
			percent(e.Rect.Top),
			percent(e.Rect.Width),
			percent(e.Rect.Height),
			strconv.Itoa(e.ZIndex),
			entryState(e),
		)
	}
	_, err = fmt.Fprintln(w, t.Render())
	return err
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func entryState(e desktop.SnapshotEntry) string {
	var flags []string
	if e.IsMinimized {
		flags = append(flags, "minimized")
	}
	if e.IsMaximized {
		flags = append(flags, "maximized")
	}
	if e.IsFocused {
		flags = append(flags, "focused")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func deleteSnapshot(w io.Writer, key string) error {
	snapshots, err := openSnapshotStore()
	if err != nil {
		return err
	}
	defer func() { _ = snapshots.Close() }()

	if err := snapshots.Delete(key); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "Deleted snapshot %s\n", key)
	return err
}
