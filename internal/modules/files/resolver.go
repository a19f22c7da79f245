package files

import (
	"context"
	"errors"
	"log"
	"strings"

	"scriptrack/internal/storage"
)

// Outcome is the discriminated result the HTTP boundary renders. NotFound
// and Error stay structurally identical so the presentation layer only
// picks a status code.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeError    Outcome = "error"
)

// Resolution is the stable result type of a lookup.
type Resolution struct {
	Outcome Outcome
	Object  *storage.Object
	Source  string
	Detail  string
}

// Resolver walks an ordered chain of blob sources: remote (when
// configured), then the primary local directory, then the legacy one.
// Each step yields found / not found / transient error; a remote
// transient error just falls through to local.
type Resolver struct {
	sources []source
}

type source struct {
	name    string
	backend storage.Backend
}

func NewResolver(svc *storage.Service) *Resolver {
	var sources []source
	if svc.RemoteConfigured() {
		sources = append(sources, source{"remote", svc.Remote()})
	}
	sources = append(sources, source{"local", svc.Primary()})
	if svc.Legacy() != nil {
		sources = append(sources, source{"legacy", svc.Legacy()})
	}
	return &Resolver{sources: sources}
}

// Resolve joins the request path segments into a key and tries each
// source in order. Old links carry an "uploads/" prefix from before the
// directory rename; both forms must hit the same key.
func (r *Resolver) Resolve(ctx context.Context, segments []string) Resolution {
	key, ok := CanonicalKey(segments)
	if !ok {
		return Resolution{Outcome: OutcomeNotFound, Detail: "unresolvable path"}
	}

	for _, src := range r.sources {
		obj, err := src.backend.Retrieve(ctx, key)
		if err == nil {
			return Resolution{Outcome: OutcomeFound, Object: obj, Source: src.name}
		}
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("file resolve miss source=%s key=%s", src.name, key)
			continue
		}
		if src.name == "remote" {
			// remote trouble is never surfaced; local fallback decides
			log.Printf("file resolve remote failure key=%s error=%v", key, err)
			continue
		}
		return Resolution{Outcome: OutcomeError, Source: src.name, Detail: err.Error()}
	}
	return Resolution{Outcome: OutcomeNotFound, Detail: "no backend holds " + key}
}

// CanonicalKey strips the legacy prefix and rejects anything that does
// not name a single flat key.
func CanonicalKey(segments []string) (string, bool) {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s == "" {
			continue
		}
		if s == ".." || strings.ContainsAny(s, `/\`) {
			return "", false
		}
		parts = append(parts, s)
	}
	if len(parts) > 1 && parts[0] == storage.LegacySegment {
		parts = parts[1:]
	}
	if len(parts) != 1 {
		return "", false
	}
	return parts[0], true
}
