package storage

import (
	"context"
	"errors"
	"log"
)

var (
	// ErrNotFound means the backend was reachable and the key is absent.
	ErrNotFound = errors.New("object not found")
	// ErrUnavailable means the backend could not answer (network, auth,
	// permissions). Callers treat it as "try the next backend".
	ErrUnavailable = errors.New("storage backend unavailable")
)

// Object is a retrieved blob plus the metadata needed to serve it.
type Object struct {
	Data        []byte
	ContentType string
	Size        int64
}

// Backend persists blobs under flat, filename-safe keys. Keys are never
// reused: a re-upload generates a fresh key, so Store must refuse to
// overwrite an existing one.
type Backend interface {
	Store(ctx context.Context, key string, data []byte, contentType string) error
	Retrieve(ctx context.Context, key string) (*Object, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Service is the write-side facade: it owns the active backend (remote
// when configured, local otherwise) and the key/locator conventions.
type Service struct {
	remote  Backend // nil when no credentials configured
	primary *Local
	legacy  *Local
}

func NewService(remote Backend, primary, legacy *Local) *Service {
	return &Service{remote: remote, primary: primary, legacy: legacy}
}

// RemoteConfigured reports whether a remote backend is wired in at all.
// The file resolver uses this to skip the remote hop entirely.
func (s *Service) RemoteConfigured() bool { return s.remote != nil }

// Remote returns the remote backend, or nil.
func (s *Service) Remote() Backend { return s.remote }

// Primary returns the primary local directory backend.
func (s *Service) Primary() *Local { return s.primary }

// Legacy returns the pre-rename local directory backend.
func (s *Service) Legacy() *Local { return s.legacy }

func (s *Service) active() Backend {
	if s.remote != nil {
		return s.remote
	}
	return s.primary
}

// StoredFile is what an upload route gets back from Save.
type StoredFile struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

// Save writes data under a freshly generated key and returns the key and
// its locator. The blob goes to the remote backend when one is
// configured, to the primary local directory otherwise.
func (s *Service) Save(ctx context.Context, data []byte, originalName, contentType string) (*StoredFile, error) {
	key := GenerateKey(originalName)
	if err := s.active().Store(ctx, key, data, contentType); err != nil {
		return nil, err
	}
	return &StoredFile{Key: key, URL: BuildLocator(key), Size: int64(len(data))}, nil
}

// Delete removes the blob for key from the active backend. Best-effort:
// a missing blob is not an error, since a dangling locator is caught by
// the integrity validator anyway.
func (s *Service) Delete(ctx context.Context, key string) {
	if err := s.active().Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("storage delete key=%s error=%v", key, err)
	}
}
