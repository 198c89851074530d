package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
)

// ManifestFile is the manifest name looked up in each plugin directory.
const ManifestFile = "plugin.json"

var (
	// ErrPluginNotFound is returned when a requested plugin cannot be found.
	ErrPluginNotFound = errors.New("plugin not found")
	// ErrActionUnsupported is returned when a plugin lacks a required action.
	ErrActionUnsupported = errors.New("plugin does not support action")
)

// Manager discovers plugins below a directory.
type Manager struct {
	dir     string
	goos    string
	plugins map[string]*Plugin
	mu      sync.RWMutex
}

// NewManager creates a Manager for dir.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:     dir,
		goos:    runtime.GOOS,
		plugins: make(map[string]*Plugin),
	}
}

// Discover rescans the plugin directory. Subdirectories without a readable
// manifest, and plugins built for other platforms, are skipped. A missing
// directory is not an error.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)

	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, os.ErrNotExist) {
		m.replace(found)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read plugin dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		p, err := m.load(filepath.Join(m.dir, entry.Name()))
		if err != nil {
			log.Printf("Skipping plugin %s: %v", entry.Name(), err)
			continue
		}
		if p == nil {
			continue
		}
		found[p.Manifest.Name] = p
	}

	m.replace(found)
	return nil
}

// load returns nil, nil for directories that are not plugins.
func (m *Manager) load(path string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(path, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, errors.New("manifest needs a name and an executable")
	}
	if !m.runsHere(manifest) {
		return nil, fmt.Errorf("not built for %s", m.goos)
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       path,
		Executable: filepath.Join(path, manifest.Executable),
	}, nil
}

func (m *Manager) runsHere(manifest Manifest) bool {
	if len(manifest.Platforms) == 0 {
		return true
	}
	for _, p := range manifest.Platforms {
		if p == m.goos {
			return true
		}
	}
	return false
}

func (m *Manager) replace(plugins map[string]*Plugin) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plugins = plugins
}

// Get returns a plugin by name, or ErrPluginNotFound.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return p, nil
}

// Require returns the named plugin after checking that it answers every
// listed action.
func (m *Manager) Require(name string, actions ...string) (*Plugin, error) {
	p, err := m.Get(name)
	if err != nil {
		return nil, err
	}
	for _, a := range actions {
		if !p.Manifest.Supports(a) {
			return nil, fmt.Errorf("%w: %s has no %q", ErrActionUnsupported, name, a)
		}
	}
	return p, nil
}

// List returns the discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		plugins = append(plugins, p)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// Dir returns the plugin directory.
func (m *Manager) Dir() string {
	return m.dir
}
