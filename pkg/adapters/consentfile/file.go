// Package consentfile keeps the visitor's consent decision in a YAML file and
// republishes it whenever the file changes on disk.
package consentfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/islands/pkg/core"
)

// TempFilePrefix is the prefix of the temporary files used by atomic writes.
const TempFilePrefix = "islands-consent-"

// Load reads a consent file. A missing or empty file means no decision yet.
func Load(path string) (*core.ConsentSnapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read consent file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var snap core.ConsentSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse consent file %s: %w", path, err)
	}
	return &snap, nil
}

// Save writes snap atomically, creating the parent directory when needed. A
// nil snapshot clears the decision.
func Save(path string, snap *core.ConsentSnapshot) error {
	var data []byte
	if snap != nil {
		var err error
		if data, err = yaml.Marshal(snap); err != nil {
			return fmt.Errorf("encode consent: %w", err)
		}
	}
	return replaceConsent(path, data)
}

// replaceConsent stages data next to path and renames it into place, so the
// watcher sees either the old decision or the new one.
func replaceConsent(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create consent directory %s: %w", dir, err)
	}

	staged, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("stage consent file: %w", err)
	}
	name := staged.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(name)
		}
	}()

	_, werr := staged.Write(data)
	if werr == nil {
		werr = staged.Sync()
	}
	if cerr := staged.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return fmt.Errorf("write consent file %s: %w", path, werr)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		return fmt.Errorf("set consent file mode: %w", err)
	}
	if err := os.Rename(name, path); err != nil {
		return fmt.Errorf("commit consent file %s: %w", path, err)
	}
	committed = true
	return nil
}

func sameSnapshot(a, b *core.ConsentSnapshot) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.AnalyticsAllowed == b.AnalyticsAllowed && a.DecidedAt.Equal(b.DecidedAt)
}
