// Package prepare derives the destination document from the source document.
// The derivation is a pure function of the source bytes and the optional
// edit-source header, so re-running it with unchanged input yields a
// byte-identical destination file.
package prepare

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	apperrors "git.home.luguber.info/inful/docpub/internal/errors"
	"git.home.luguber.info/inful/docpub/internal/logfields"
)

// ErrSourceMissing indicates the source document does not exist or is unreadable.
var ErrSourceMissing = errors.New("source document missing")

// Header builds the edit-source header prepended to the destination document.
// An empty editURL disables the header entirely (pure copy).
func Header(editURL string) string {
	if editURL == "" {
		return ""
	}
	return fmt.Sprintf("<!-- Edit this document at %s -->\n\n", editURL)
}

// Run reads the source document, optionally prepends the header, and writes
// the result to dest, fully overwriting any previous content. The write is
// atomic: dest is never observed half-written.
func Run(sourcePath, destPath, header string) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return apperrors.Wrap(ErrSourceMissing, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
				fmt.Sprintf("source document not found: %s", sourcePath)).
				WithContext("source", sourcePath)
		}
		return apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
			fmt.Sprintf("failed to read source document: %s", sourcePath))
	}

	content := data
	if header != "" {
		content = append([]byte(header), data...)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o750); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
			fmt.Sprintf("failed to create destination directory for %s", destPath))
	}

	if err := atomic.WriteFile(destPath, bytes.NewReader(content)); err != nil {
		return apperrors.Wrap(err, apperrors.CategoryFileSystem, apperrors.SeverityFatal,
			fmt.Sprintf("failed to write destination document: %s", destPath))
	}

	slog.Debug("Prepared destination document",
		logfields.Source(sourcePath),
		logfields.Dest(destPath),
		slog.Int("bytes", len(content)),
		slog.Bool("header", header != ""))

	return nil
}
