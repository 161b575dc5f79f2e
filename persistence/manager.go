// Package persistence saves and loads run reports as TOML files
package persistence

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// ErrName is returned for report names that would escape the base directory
var ErrName = errors.New("invalid report name")

// Manager handles save/load for run reports
type Manager struct {
	basePath string
}

// NewManager creates a manager with the given base directory
func NewManager(basePath string) *Manager {
	return &Manager{basePath: basePath}
}

// FilePath returns the path for a report file
func (m *Manager) FilePath(name string) string {
	return filepath.Join(m.basePath, name+".toml")
}

// Exists checks if a report file exists
func (m *Manager) Exists(name string) bool {
	_, err := os.Stat(m.FilePath(name))
	return err == nil
}

// Save writes a report to disk
func (m *Manager) Save(name string, report Report) error {
	if err := checkName(name); err != nil {
		return err
	}
	if err := os.MkdirAll(m.basePath, 0755); err != nil {
		return errors.Wrap(err, "create report directory")
	}

	data, err := toml.Marshal(report)
	if err != nil {
		return errors.Wrap(err, "encode report")
	}

	return errors.Wrap(os.WriteFile(m.FilePath(name), data, 0644), "write report")
}

// Load reads a report from disk
func (m *Manager) Load(name string) (Report, error) {
	if err := checkName(name); err != nil {
		return Report{}, err
	}
	return LoadFile(m.FilePath(name))
}

// LoadFile reads a report from an explicit path
func LoadFile(path string) (Report, error) {
	var report Report

	data, err := os.ReadFile(path)
	if err != nil {
		return report, errors.Wrap(err, "read report")
	}

	if err := toml.Unmarshal(data, &report); err != nil {
		return report, errors.Wrapf(err, "decode report %s", path)
	}

	return report, nil
}

func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return errors.Wrapf(ErrName, "%q", name)
	}
	return nil
}
