package publish

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"git.home.luguber.info/inful/docpub/internal/config"
	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
)

// authMethod builds the go-git auth method for the configured auth type.
// A nil return with nil error means unauthenticated access.
func authMethod(cfg *config.AuthConfig) (transport.AuthMethod, error) {
	if cfg == nil || cfg.Type == "" || cfg.Type == config.AuthTypeNone {
		return nil, nil
	}

	switch cfg.Type {
	case config.AuthTypeToken:
		if cfg.Token == "" {
			return nil, apperrors.New(apperrors.CategoryConfig, apperrors.SeverityFatal,
				"token authentication requires a token")
		}
		// Most git hosting services accept "token" as the username.
		return &githttp.BasicAuth{Username: "token", Password: cfg.Token}, nil

	case config.AuthTypeBasic:
		if cfg.Username == "" || cfg.Password == "" {
			return nil, apperrors.New(apperrors.CategoryConfig, apperrors.SeverityFatal,
				"basic authentication requires username and password")
		}
		return &githttp.BasicAuth{Username: cfg.Username, Password: cfg.Password}, nil

	case config.AuthTypeSSH:
		keyPath := cfg.KeyPath
		if keyPath == "" {
			keyPath = filepath.Join(os.Getenv("HOME"), ".ssh", "id_rsa")
		}
		keys, err := gitssh.NewPublicKeysFromFile("git", keyPath, "")
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CategoryConfig, apperrors.SeverityFatal,
				"failed to load SSH key from "+keyPath)
		}
		return keys, nil
	}

	return nil, apperrors.New(apperrors.CategoryConfig, apperrors.SeverityFatal,
		"unsupported auth type: "+string(cfg.Type))
}
