package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"reelpost/internal/services"
)

// LocalBackend copies variants into a directory, typically one served by a
// web server at PublicBaseURL.
type LocalBackend struct {
	fs            afero.Fs
	src           afero.Fs
	dir           string
	publicBaseURL string
}

// NewLocalBackend stores files under dir on fs. Source files are read from
// the OS filesystem.
func NewLocalBackend(fs afero.Fs, dir, publicBaseURL string) *LocalBackend {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &LocalBackend{
		fs:            fs,
		src:           afero.NewOsFs(),
		dir:           dir,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

// WithSourceFs overrides where Store reads source files from.
func (b *LocalBackend) WithSourceFs(src afero.Fs) *LocalBackend {
	b.src = src
	return b
}

func (b *LocalBackend) Name() string { return "local" }

// Store copies path to <dir>/<name> through a temporary file and returns
// <public_base_url>/<name>, or a file:// URL when no base URL is set.
func (b *LocalBackend) Store(ctx context.Context, path, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrStorage, "storage", "local copy", name, err)
	}
	name = filepath.Base(name)
	if err := b.fs.MkdirAll(b.dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrStorage, "storage", "create dir", b.dir, err)
	}
	target := filepath.Join(b.dir, name)
	if err := b.copy(path, target); err != nil {
		return "", services.Wrap(services.ErrStorage, "storage", "local copy", name, err)
	}
	if b.publicBaseURL != "" {
		return b.publicBaseURL + "/" + url.PathEscape(name), nil
	}
	return (&url.URL{Scheme: "file", Path: target}).String(), nil
}

func (b *LocalBackend) copy(src, dst string) error {
	in, err := b.src.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := b.fs.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = b.fs.Remove(tmp)
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = b.fs.Remove(tmp)
		return fmt.Errorf("close target: %w", err)
	}
	if err := b.fs.Rename(tmp, dst); err != nil {
		_ = b.fs.Remove(tmp)
		return fmt.Errorf("rename target: %w", err)
	}
	return nil
}
