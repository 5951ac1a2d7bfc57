package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kilodown/deskwm/internal/config"
)

// printConfigPath prints the config file path
func printConfigPath() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}
	fmt.Println(path)
	return nil
}

// findEditor returns $EDITOR, $VISUAL or the first common editor on PATH.
func findEditor() string {
	for _, env := range []string{"EDITOR", "VISUAL"} {
		if e := os.Getenv(env); e != "" {
			return e
		}
	}
	for _, e := range []string{"vim", "vi", "nano", "emacs"} {
		if _, err := exec.LookPath(e); err == nil {
			return e
		}
	}
	return ""
}

// editConfigFile opens the config file in $EDITOR
func editConfigFile() error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Config file doesn't exist, creating default at: %s\n", configPath)
		if err := config.WriteDefault(configPath); err != nil {
			return fmt.Errorf("could not create config file: %w", err)
		}
	}

	editor := findEditor()
	if editor == "" {
		return fmt.Errorf("no editor found. Please set $EDITOR environment variable")
	}

	cmd := exec.Command(editor, configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}

	// a running desktop reloads the file itself; report mistakes now
	if _, err := config.LoadFromFile(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	return nil
}

// confirm asks a yes/no question on stdin.
func confirm(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s (yes/no): ", question)
	line, _ := bufio.NewReader(r).ReadString('\n')
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "yes" || response == "y"
}

// resetConfigToDefaults resets the configuration file to default settings
func resetConfigToDefaults(yes bool) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("could not determine config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil && !yes {
		fmt.Printf("Warning: This will overwrite your existing configuration at:\n")
		fmt.Printf("  %s\n\n", configPath)
		if !confirm(os.Stdin, os.Stdout, "Are you sure you want to reset to defaults?") {
			fmt.Println("Reset cancelled.")
			return nil
		}
	}

	if err := config.WriteDefault(configPath); err != nil {
		return err
	}

	fmt.Printf("Configuration reset to defaults\n")
	fmt.Printf("  Location: %s\n", configPath)
	fmt.Println("\nYou can customize it with: deskwm config edit")
	return nil
}

// showConfig prints the configuration a desktop started now would use.
func showConfig(w io.Writer) error {
	cfg, err := config.LoadUserConfig()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	path, _ := config.GetConfigPath()
	data, err := config.Marshal(cfg, path)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// listKeybindings prints all configured keybindings in a pretty table
func listKeybindings(w io.Writer) error {
	userConfig, err := config.LoadUserConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		fmt.Fprintln(os.Stderr, "Using default keybindings...")
		userConfig = config.DefaultConfig()
	}
	registry := config.NewKeybindRegistry(userConfig)

	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("deskwm Keybindings"))
	fmt.Fprintln(w)

	for _, section := range config.GetKeybindings(registry) {
		t := newTable("Keys", "Action")
		rows := 0
		for _, b := range section.Bindings {
			if b.Key == "" {
				continue
			}
			t.Row(b.Key, b.Description)
			rows++
		}
		if rows == 0 {
			continue
		}
		fmt.Fprintln(w, sectionStyle.Render(section.Title))
		fmt.Fprintln(w, t.Render())
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, noteStyle.Render("1-9 focus the matching taskbar entry and are not configurable."))
	fmt.Fprintln(w)
	return nil
}
