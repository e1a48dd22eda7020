package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpub/internal/config"
	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
)

func newBareRemote(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	_, err := git.PlainInit(dir, true)
	require.NoError(t, err)
	return dir
}

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func branchCommit(t *testing.T, remoteDir, branch string) *plumbing.Reference {
	t.Helper()
	repo, err := git.PlainOpen(remoteDir)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	require.NoError(t, err)
	return ref
}

func publishConfig(remote string) *config.PublishConfig {
	return &config.PublishConfig{
		Repo:        remote,
		Branch:      "gh-pages",
		AuthorName:  "docpub",
		AuthorEmail: "docpub@localhost",
	}
}

func TestPublish_CreatesBranchOnEmptyRemote(t *testing.T) {
	remote := newBareRemote(t)
	site := writeSite(t, map[string]string{
		"index.html":       "<html>v1</html>",
		"guide/index.html": "<html>guide</html>",
	})

	require.NoError(t, Publish(context.Background(), publishConfig(remote), site))

	ref := branchCommit(t, remote, "gh-pages")
	repo, err := git.PlainOpen(remote)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Publish documentation site", commit.Message)
	assert.Equal(t, "docpub", commit.Author.Name)

	tree, err := commit.Tree()
	require.NoError(t, err)
	for _, name := range []string{"index.html", "guide/index.html"} {
		_, err := tree.File(name)
		assert.NoError(t, err, name)
	}
}

func TestPublish_UnchangedSiteSkipsCommit(t *testing.T) {
	remote := newBareRemote(t)
	site := writeSite(t, map[string]string{"index.html": "<html>v1</html>"})
	cfg := publishConfig(remote)

	require.NoError(t, Publish(context.Background(), cfg, site))
	first := branchCommit(t, remote, "gh-pages").Hash()

	require.NoError(t, Publish(context.Background(), cfg, site))
	second := branchCommit(t, remote, "gh-pages").Hash()

	assert.Equal(t, first, second)
}

func TestPublish_UpdateReplacesBranchContent(t *testing.T) {
	remote := newBareRemote(t)
	cfg := publishConfig(remote)

	site1 := writeSite(t, map[string]string{
		"index.html": "<html>v1</html>",
		"stale.html": "<html>old</html>",
	})
	require.NoError(t, Publish(context.Background(), cfg, site1))
	first := branchCommit(t, remote, "gh-pages").Hash()

	site2 := writeSite(t, map[string]string{"index.html": "<html>v2</html>"})
	require.NoError(t, Publish(context.Background(), cfg, site2))

	ref := branchCommit(t, remote, "gh-pages")
	require.NotEqual(t, first, ref.Hash())

	repo, err := git.PlainOpen(remote)
	require.NoError(t, err)
	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)

	// History is preserved: the new commit descends from the first publish.
	require.Equal(t, 1, commit.NumParents())
	parent, err := commit.Parent(0)
	require.NoError(t, err)
	assert.Equal(t, first, parent.Hash)

	tree, err := commit.Tree()
	require.NoError(t, err)
	file, err := tree.File("index.html")
	require.NoError(t, err)
	content, err := file.Contents()
	require.NoError(t, err)
	assert.Equal(t, "<html>v2</html>", content)

	// The stale file from the previous publish is gone.
	_, err = tree.File("stale.html")
	assert.Error(t, err)
}

func TestPublish_NilConfigFails(t *testing.T) {
	err := Publish(context.Background(), nil, t.TempDir())
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))
}

func TestAuthMethod_Types(t *testing.T) {
	auth, err := authMethod(nil)
	require.NoError(t, err)
	assert.Nil(t, auth)

	auth, err = authMethod(&config.AuthConfig{Type: config.AuthTypeNone})
	require.NoError(t, err)
	assert.Nil(t, auth)

	auth, err = authMethod(&config.AuthConfig{Type: config.AuthTypeToken, Token: "tok"})
	require.NoError(t, err)
	require.NotNil(t, auth)

	_, err = authMethod(&config.AuthConfig{Type: config.AuthTypeToken})
	require.Error(t, err)

	_, err = authMethod(&config.AuthConfig{Type: config.AuthTypeBasic, Username: "u"})
	require.Error(t, err)

	_, err = authMethod(&config.AuthConfig{Type: "oauth"})
	require.Error(t, err)
}
