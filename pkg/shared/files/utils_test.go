package files

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePath(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "target.py")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x = 1\n"), 0o644))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name:    "Regular file",
			path:    tmpFile,
			wantErr: false,
		},
		{
			name:    "Directory",
			path:    tmpDir,
			wantErr: true,
		},
		{
			name:    "Missing path",
			path:    filepath.Join(tmpDir, "missing"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsSymlinkToDir(t *testing.T) {
	tmpDir := t.TempDir()
	realDir := filepath.Join(tmpDir, "real")
	require.NoError(t, os.Mkdir(realDir, 0o755))

	realFile := filepath.Join(tmpDir, "file.txt")
	require.NoError(t, os.WriteFile(realFile, []byte("data"), 0o644))

	dirLink := filepath.Join(tmpDir, "dirlink")
	require.NoError(t, os.Symlink(realDir, dirLink))

	fileLink := filepath.Join(tmpDir, "filelink")
	require.NoError(t, os.Symlink(realFile, fileLink))

	danglingLink := filepath.Join(tmpDir, "dangling")
	require.NoError(t, os.Symlink(filepath.Join(tmpDir, "nope"), danglingLink))

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"Symlink to directory", dirLink, true},
		{"Symlink to file", fileLink, false},
		{"Dangling symlink", danglingLink, false},
		{"Plain directory", realDir, false},
		{"Plain file", realFile, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsSymlinkToDir(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
