// Package plugin discovers and runs the external helper executables that
// talk to platform devices, such as the system audio mixer.
//
// A plugin is a directory holding a plugin.json manifest and an executable.
// Each call starts the executable, writes one JSON Request to its stdin and
// reads one JSON Response from its stdout.
package plugin

import "encoding/json"

// Manifest describes a plugin's metadata and the actions it answers.
type Manifest struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Executable  string   `json:"executable"`
	Actions     []string `json:"actions"`
	// Platforms lists GOOS values the plugin supports; empty means all.
	Platforms []string `json:"platforms,omitempty"`
}

// Supports reports whether the manifest lists action.
func (m Manifest) Supports(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is written to the plugin's stdin.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is read from the plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
