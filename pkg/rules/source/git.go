package source

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
)

// VersionInfo identifies the policy revision a rules file was loaded from.
// The CLI logs it (run) or prints it beside the decision (decide); it is not
// recorded in decisions or audit entries.
type VersionInfo struct {
	// CommitSHA is the HEAD commit hash.
	CommitSHA string `json:"commitSha"`

	// CommitTime is when the commit was created.
	CommitTime time.Time `json:"commitTime"`

	// Branch is the checked-out branch name, empty on a detached HEAD.
	Branch string `json:"branch,omitempty"`

	// Author is the commit author as "Name <email>".
	Author string `json:"author"`

	// Message is the first line of the commit message.
	Message string `json:"message,omitempty"`
}

// GitVersion resolves the version of the repository containing path. A path
// outside any git work tree returns (nil, nil): version stamping is an
// enrichment, not a requirement.
func GitVersion(path string) (*VersionInfo, error) {
	repo, err := git.PlainOpenWithOptions(filepath.Dir(path), &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open repository for %q: %w", path, err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD commit: %w", err)
	}

	info := &VersionInfo{
		CommitSHA:  head.Hash().String(),
		CommitTime: commit.Author.When.UTC(),
		Author:     fmt.Sprintf("%s <%s>", commit.Author.Name, commit.Author.Email),
		Message:    firstLine(commit.Message),
	}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info, nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
