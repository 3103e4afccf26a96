package autostart

import (
	"os"
	"path/filepath"
	"text/template"
)

const launchAgentLabel = "fr.onivoid.multitool"

var plistTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>` + launchAgentLabel + `</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.Executable}}</string>{{range .Args}}
        <string>{{.}}</string>{{end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
</dict>
</plist>
`))

// LaunchAgentPath returns ~/Library/LaunchAgents/fr.onivoid.multitool.plist.
func LaunchAgentPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "LaunchAgents", launchAgentLabel+".plist")
}

// NewLaunchAgent returns a Manager writing a LaunchAgent plist at path.
// The agent only runs at login, so no launchctl call is needed.
func NewLaunchAgent(path string, target Target) Manager {
	return &fileManager{path: path, tmpl: plistTemplate, target: target}
}
