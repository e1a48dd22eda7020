// Package publish pushes a rendered site to a git repository branch.
//
// The site is committed as the complete branch content: existing files on
// the branch are replaced, so the branch always mirrors the latest build.
package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/docpub/internal/config"
	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
	"git.home.luguber.info/inful/docpub/internal/logfields"
	"git.home.luguber.info/inful/docpub/internal/workspace"
)

// Publish pushes the contents of siteDir to the configured repository branch.
// If the branch content is unchanged from the previous publish, no commit is
// made and the push is skipped.
func Publish(ctx context.Context, cfg *config.PublishConfig, siteDir string) error {
	if cfg == nil {
		return apperrors.New(apperrors.CategoryConfig, apperrors.SeverityFatal,
			"publish target is not configured")
	}

	auth, err := authMethod(cfg.Auth)
	if err != nil {
		return err
	}

	ws := workspace.NewManager("")
	if err := ws.Create(); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
			"failed to create staging directory")
	}
	defer func() {
		_ = ws.Cleanup()
	}()
	staging := ws.Path()

	repo, err := git.PlainInit(staging, false)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to initialize staging repository")
	}

	if _, err := repo.CreateRemote(&gitcfg.RemoteConfig{
		Name: "origin",
		URLs: []string{cfg.Repo},
	}); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to configure remote")
	}

	branchRef := plumbing.NewBranchReferenceName(cfg.Branch)
	if err := checkoutRemoteBranch(ctx, repo, cfg, auth, branchRef); err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to open staging worktree")
	}

	if err := replaceWorktreeContent(staging, siteDir); err != nil {
		return err
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to stage site files")
	}

	status, err := wt.Status()
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to read staging status")
	}
	if status.IsClean() {
		slog.Info("Site unchanged since last publish, skipping push",
			logfields.Repository(cfg.Repo), logfields.Branch(cfg.Branch))
		return nil
	}

	commit, err := wt.Commit("Publish documentation site", &git.CommitOptions{
		Author: &object.Signature{
			Name:  cfg.AuthorName,
			Email: cfg.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to commit site")
	}

	pushSpec := gitcfg.RefSpec(fmt.Sprintf("%s:%s", branchRef, branchRef))
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitcfg.RefSpec{pushSpec},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to push site").
			WithContext("repo", cfg.Repo).
			WithContext("branch", cfg.Branch)
	}

	slog.Info("Site published",
		logfields.Repository(cfg.Repo),
		logfields.Branch(cfg.Branch),
		slog.String("commit", commit.String()))
	return nil
}

// checkoutRemoteBranch points the staging repository at the current state of
// the remote publish branch, or at a fresh orphan branch when the remote has
// no such branch yet.
func checkoutRemoteBranch(ctx context.Context, repo *git.Repository, cfg *config.PublishConfig, auth transport.AuthMethod, branchRef plumbing.ReferenceName) error {
	remoteRef := plumbing.NewRemoteReferenceName("origin", cfg.Branch)
	fetchSpec := gitcfg.RefSpec(fmt.Sprintf("+%s:%s", branchRef, remoteRef))

	err := repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: "origin",
		RefSpecs:   []gitcfg.RefSpec{fetchSpec},
		Auth:       auth,
		Tags:       git.NoTags,
	})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
		// Branch exists remotely; continue below.
	case errors.Is(err, transport.ErrEmptyRemoteRepository), isMissingBranch(err):
		// Nothing published yet. Start the branch from scratch.
		head := plumbing.NewSymbolicReference(plumbing.HEAD, branchRef)
		if err := repo.Storer.SetReference(head); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
				"failed to create publish branch")
		}
		slog.Debug("Publish branch does not exist remotely, starting fresh",
			logfields.Branch(cfg.Branch))
		return nil
	default:
		return apperrors.Wrap(err, apperrors.CategoryNetwork, apperrors.SeverityFatal,
			"failed to fetch publish branch").
			WithContext("repo", cfg.Repo).
			WithContext("branch", cfg.Branch)
	}

	remote, err := repo.Reference(remoteRef, true)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to resolve fetched branch")
	}

	local := plumbing.NewHashReference(branchRef, remote.Hash())
	if err := repo.Storer.SetReference(local); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to set publish branch")
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, branchRef)
	if err := repo.Storer.SetReference(head); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to set HEAD")
	}

	wt, err := repo.Worktree()
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to open staging worktree")
	}
	if err := wt.Reset(&git.ResetOptions{Commit: remote.Hash(), Mode: git.HardReset}); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryPublish, apperrors.SeverityFatal,
			"failed to check out publish branch")
	}
	return nil
}

// isMissingBranch reports whether a fetch failed because the remote branch
// does not exist yet.
func isMissingBranch(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.As(err, &noMatch)
}

// replaceWorktreeContent removes everything except .git from the staging
// directory and copies the site in.
func replaceWorktreeContent(staging, siteDir string) error {
	entries, err := os.ReadDir(staging)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
			"failed to read staging directory")
	}
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(staging, e.Name())); err != nil {
			return apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
				"failed to clear staging directory")
		}
	}
	return copyTree(siteDir, staging)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o750)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
