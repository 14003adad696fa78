// Package gitsource keeps local checkouts of git card sources.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does. Progress output goes to progress,
// which may be nil.
func Sync(ctx context.Context, url, localPath string, progress io.Writer) error {
	_, err := os.Stat(localPath)
	switch {
	case os.IsNotExist(err):
		slog.Info("Cloning repository", "url", url, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      url,
			Progress: progress,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		slog.Info("Clone successful", "path", localPath)

	case err == nil:
		slog.Info("Pulling latest changes", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.PullContext(ctx, &git.PullOptions{
			RemoteName: "origin",
			Progress:   progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
		slog.Info("Pull successful (or already up-to-date)", "path", localPath)

	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	return nil
}

// LocalPath returns where the checkout of repoURL lives under baseDir:
// <baseDir>/<host>/<repository path without .git>. Both HTTP(S) URLs and
// scp-like "user@host:path" addresses are accepted.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if user, rest, ok := strings.Cut(repoURL, "@"); ok && user != "" {
			host, repoPath, ok := strings.Cut(rest, ":")
			if ok && host != "" && repoPath != "" {
				return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	if parsedURL.Host == "" || strings.Trim(sanitizedPath, "/") == "" {
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}

// IsRemote reports whether path looks like a git URL rather than a local directory.
func IsRemote(path string) bool {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return true
	}
	if strings.HasSuffix(path, ".git") {
		return true
	}
	user, rest, ok := strings.Cut(path, "@")
	return ok && user != "" && strings.Contains(rest, ":")
}
