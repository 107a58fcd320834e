package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConfigFile is the name of the site configuration file.
const ConfigFile = "islands.yaml"

// FindConfig looks upwards from startDir for a site configuration.
// Indicators are an islands.yaml file or an .islands directory holding one.
// It returns the absolute path of the file.
func FindConfig(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, ConfigFile) {
			return filepath.Join(dir, ConfigFile), nil
		}
		if hasFile(dir, filepath.Join(".islands", ConfigFile)) {
			return filepath.Join(dir, ".islands", ConfigFile), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found above %s", ConfigFile, abs)
}

func hasFile(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}
