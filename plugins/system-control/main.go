// Package main is the system-control plugin. It reads and sets the output
// level of the system audio mixer: through AppleScript on macOS and through
// pactl on Linux.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action string          `json:"action"`
	Params json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type levelRange struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Unit string  `json:"unit"`
}

type levelParams struct {
	Level float64 `json:"level"`
}

// mixer is one platform's way of talking to the output device.
type mixer interface {
	Range() (levelRange, error)
	Level() (float64, error)
	SetLevel(level float64) error
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	m, err := platformMixer()
	if err != nil {
		writeResponse(Response{Error: err.Error()})
		return
	}

	data, err := handle(m, req)
	if err != nil {
		writeResponse(Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
		return
	}
	writeResponse(Response{Success: true, Data: data})
}

func handle(m mixer, req Request) (any, error) {
	switch req.Action {
	case "volume-range":
		return m.Range()
	case "volume-get":
		level, err := m.Level()
		if err != nil {
			return nil, err
		}
		return levelParams{Level: level}, nil
	case "volume-set":
		var p levelParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return nil, fmt.Errorf("invalid params: %w", err)
		}
		return nil, m.SetLevel(p.Level)
	default:
		return nil, fmt.Errorf("unknown action: %s", req.Action)
	}
}

func platformMixer() (mixer, error) {
	switch runtime.GOOS {
	case "darwin":
		return appleScriptMixer{}, nil
	case "linux":
		return pactlMixer{}, nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

func run(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// appleScriptMixer uses the 0-100 "output volume" scale.
type appleScriptMixer struct{}

func (appleScriptMixer) Range() (levelRange, error) {
	return levelRange{Min: 0, Max: 100, Unit: "percent"}, nil
}

func (appleScriptMixer) Level() (float64, error) {
	out, err := run("osascript", "-e", `output volume of (get volume settings)`)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(out), 64)
}

func (appleScriptMixer) SetLevel(level float64) error {
	_, err := run("osascript", "-e", fmt.Sprintf("set volume output volume %d", int(level+0.5)))
	return err
}

// pactlMixer drives the default PulseAudio/PipeWire sink in decibels.
type pactlMixer struct{}

// pactlFloorDB stands in for silence, which pactl reports as -inf dB.
const pactlFloorDB = -65.25

var dbPattern = regexp.MustCompile(`(-?(?:\d+(?:\.\d+)?|inf))\s*dB`)

func (pactlMixer) Range() (levelRange, error) {
	if _, err := exec.LookPath("pactl"); err != nil {
		return levelRange{}, errors.New("pactl not installed")
	}
	return levelRange{Min: pactlFloorDB, Max: 0, Unit: "dB"}, nil
}

func (pactlMixer) Level() (float64, error) {
	out, err := run("pactl", "get-sink-volume", "@DEFAULT_SINK@")
	if err != nil {
		return 0, err
	}
	return parsePactlDB(out)
}

func (pactlMixer) SetLevel(level float64) error {
	_, err := run("pactl", "set-sink-volume", "@DEFAULT_SINK@", "--", fmt.Sprintf("%.2fdB", level))
	return err
}

// parsePactlDB returns the first channel's level from pactl output such as
// "Volume: front-left: 32768 /  50% / -18.06 dB,   front-right: ...".
func parsePactlDB(out string) (float64, error) {
	m := dbPattern.FindStringSubmatch(out)
	if m == nil {
		return 0, fmt.Errorf("no dB value in %q", strings.TrimSpace(out))
	}
	if m[1] == "-inf" {
		return pactlFloorDB, nil
	}

	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, err
	}
	if v < pactlFloorDB {
		v = pactlFloorDB
	}
	return v, nil
}
