package profile

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// AvatarStore keeps uploaded avatar images on disk, one file per user named
// <uid>.<ext>. Re-uploading replaces the file; the stored files are served
// back under /avatars/.
type AvatarStore struct {
	dir string
}

func NewAvatarStore(dir string) (*AvatarStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("avatar dir: %w", err)
	}

	return &AvatarStore{dir: dir}, nil
}

// Save writes one avatar and returns the public path it will be served from.
func (s *AvatarStore) Save(uid string, ext string, file io.Reader) (string, error) {
	if uid == "" || strings.ContainsAny(uid+ext, `/\`) {
		return "", fmt.Errorf("invalid avatar name: %q.%q", uid, ext)
	}

	filename := uid + "." + ext
	f, err := os.Create(filepath.Join(s.dir, filename))
	if err != nil {
		return "", fmt.Errorf("avatar file: %w", err)
	}

	_, err = io.Copy(f, file)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("avatar write: %w", err)
	}

	return "/avatars/" + filename, nil
}

// FileServer serves the stored avatars. Mount under /avatars/.
func (s *AvatarStore) FileServer() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}
