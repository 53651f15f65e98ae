package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPathValidator(t *testing.T) {
	_, err := NewPathValidator("")
	assert.Error(t, err)

	v, err := NewPathValidator("relative/dir")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(v.Root()))
}

func TestResolve(t *testing.T) {
	root := t.TempDir()
	v, err := NewPathValidator(root)
	require.NoError(t, err)
	realRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative", "doc.pdf", false},
		{"absolute inside", filepath.Join(root, "sub", "doc.pdf"), false},
		{"root itself", root, false},
		{"dot dot escape", "../outside.pdf", true},
		{"absolute outside", filepath.Join(filepath.Dir(root), "other.pdf"), true},
		{"prefix sibling", root + "-evil/doc.pdf", true},
		{"empty", "", true},
		{"null bytes only", "\x00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Resolve(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(got))
			inRoot := got == root || got == realRoot ||
				strings.HasPrefix(got, root) || strings.HasPrefix(got, realRoot)
			assert.True(t, inRoot, got)
		})
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.pdf"), []byte("%PDF-"), 0o600))

	link := filepath.Join(root, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	v, err := NewPathValidator(root)
	require.NoError(t, err)

	_, err = v.Resolve("link/secret.pdf")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestResolveInputAndOutput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "in.pdf"), []byte("%PDF-"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(root, "out"), 0o750))

	v, err := NewPathValidator(root)
	require.NoError(t, err)

	in, err := v.ResolveInput("in.pdf")
	require.NoError(t, err)
	assert.Equal(t, "in.pdf", filepath.Base(in))

	_, err = v.ResolveInput("missing.pdf")
	assert.Error(t, err)
	_, err = v.ResolveInput("out")
	assert.Error(t, err)

	out, err := v.ResolveOutput("out/result.docx", ".docx")
	require.NoError(t, err)
	assert.Equal(t, "result.docx", filepath.Base(out))

	_, err = v.ResolveOutput("out/result.txt", ".docx")
	assert.Error(t, err)
	_, err = v.ResolveOutput("nodir/result.docx", ".docx")
	assert.Error(t, err)
}
