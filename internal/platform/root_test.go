package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfig(t *testing.T) {
	// base/
	//   site/ (islands.yaml)
	//     content/
	//       nested/
	//   hidden/ (.islands/islands.yaml)
	//   empty/
	baseDir := t.TempDir()
	siteDir := filepath.Join(baseDir, "site")
	nestedDir := filepath.Join(siteDir, "content", "nested")
	hiddenDir := filepath.Join(baseDir, "hidden")
	emptyDir := filepath.Join(baseDir, "empty")

	require.NoError(t, os.MkdirAll(nestedDir, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(hiddenDir, ".islands"), 0o755))
	require.NoError(t, os.MkdirAll(emptyDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(siteDir, ConfigFile), []byte("locales: [en]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(hiddenDir, ".islands", ConfigFile), []byte("locales: [en]\n"), 0o644))

	tests := []struct {
		name      string
		startPath string
		want      string
		wantErr   bool
	}{
		{"Start at Site", siteDir, filepath.Join(siteDir, ConfigFile), false},
		{"Start Nested Deeply", nestedDir, filepath.Join(siteDir, ConfigFile), false},
		{"Hidden Directory", hiddenDir, filepath.Join(hiddenDir, ".islands", ConfigFile), false},
		{"No Config Found", emptyDir, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindConfig(tt.startPath)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.Clean(tt.want), filepath.Clean(got))
		})
	}
}
