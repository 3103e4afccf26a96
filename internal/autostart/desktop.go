package autostart

import (
	"os"
	"path/filepath"
	"text/template"
)

var desktopTemplate = template.Must(template.New("desktop").Parse(`[Desktop Entry]
Type=Application
Name=` + AppName + `
Exec="{{.Executable}}"{{range .Args}} {{.}}{{end}}
X-GNOME-Autostart-enabled=true
Terminal=false
`))

// DesktopEntryPath returns $XDG_CONFIG_HOME/autostart/multitool.desktop.
func DesktopEntryPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "autostart", "multitool.desktop")
}

// NewDesktopEntry returns a Manager writing an XDG autostart entry at path.
func NewDesktopEntry(path string, target Target) Manager {
	return &fileManager{path: path, tmpl: desktopTemplate, target: target}
}
