package gitsource

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected string
		wantErr  bool
	}{
		{"HTTPS", "https://github.com/user/notes.git", filepath.Join("repos", "github.com", "user", "notes"), false},
		{"HTTPS without suffix", "https://gitlab.com/group/sub/notes", filepath.Join("repos", "gitlab.com", "group", "sub", "notes"), false},
		{"SCP-like", "git@github.com:user/notes.git", filepath.Join("repos", "github.com", "user", "notes"), false},
		{"Local path", "/home/user/notes", "", true},
		{"Host only", "https://github.com/", "", true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://github.com/user/notes.git"))
	assert.True(t, IsRemote("git@github.com:user/notes.git"))
	assert.True(t, IsRemote("/srv/notes.git"))
	assert.False(t, IsRemote("/home/user/notes"))
	assert.False(t, IsRemote("notes"))
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestSyncClonesThenPulls(t *testing.T) {
	// The file transport runs git-upload-pack.
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	ctx := context.Background()
	upstreamDir := t.TempDir()
	upstream, err := git.PlainInit(upstreamDir, false)
	require.NoError(t, err)
	commitFile(t, upstream, upstreamDir, "cards.md", "Q: one\nA: 1\n")

	checkout := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, Sync(ctx, upstreamDir, checkout, nil))
	data, err := os.ReadFile(filepath.Join(checkout, "cards.md"))
	require.NoError(t, err)
	assert.Equal(t, "Q: one\nA: 1\n", string(data))

	// Already up to date is not an error.
	require.NoError(t, Sync(ctx, upstreamDir, checkout, nil))

	commitFile(t, upstream, upstreamDir, "more.md", "Q: two\nA: 2\n")
	require.NoError(t, Sync(ctx, upstreamDir, checkout, nil))
	_, err = os.Stat(filepath.Join(checkout, "more.md"))
	assert.NoError(t, err)
}
