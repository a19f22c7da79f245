package integrity

import (
	"context"
	"sync"

	"scriptrack/internal/storage"
)

// Validator answers "does this locator still point at a blob?" without
// reading content. It checks local storage only (primary then legacy
// directory): remote objects are assumed durable, and auditing them would
// couple offline maintenance runs to network availability. That scope is
// policy, not an accident.
type Validator struct {
	primary *storage.Local
	legacy  *storage.Local
}

func NewValidator(primary, legacy *storage.Local) *Validator {
	return &Validator{primary: primary, legacy: legacy}
}

// Result is the outcome of validating a single locator.
type Result struct {
	Locator string `json:"locator"`
	Key     string `json:"key,omitempty"`
	IsValid bool   `json:"is_valid"`
	Exists  bool   `json:"exists"`
	Reason  string `json:"reason,omitempty"`
}

// Validate never returns an error: malformed input is a validation
// failure, not a fault.
func (v *Validator) Validate(locator string) Result {
	key, ok := storage.ExtractKey(locator)
	if !ok {
		return Result{Locator: locator, Reason: "key not extractable"}
	}
	exists := v.existsLocally(key)
	res := Result{Locator: locator, Key: key, IsValid: exists, Exists: exists}
	if !exists {
		res.Reason = "blob missing"
	}
	return res
}

// ValidateAndClean is the pre-write guard: it returns the locator
// unchanged when valid and "" otherwise, so a record never persists a
// knowingly-dangling reference. Idempotent.
func (v *Validator) ValidateAndClean(locator string) string {
	if v.Validate(locator).IsValid {
		return locator
	}
	return ""
}

// BatchValidate validates each locator independently and concurrently.
// Results keep input order; there is no atomicity across the batch.
func (v *Validator) BatchValidate(locators []string) []Result {
	results := make([]Result, len(locators))
	var wg sync.WaitGroup
	for i, loc := range locators {
		wg.Add(1)
		go func(i int, loc string) {
			defer wg.Done()
			results[i] = v.Validate(loc)
		}(i, loc)
	}
	wg.Wait()
	return results
}

// Stats is auxiliary introspection for audit tooling.
type Stats struct {
	Key    string `json:"key,omitempty"`
	Exists bool   `json:"exists"`
	Size   int64  `json:"size,omitempty"`
	Path   string `json:"path,omitempty"`
}

// StatsFor reports where the locator's blob lives locally and how big it
// is. Not used in any write path.
func (v *Validator) StatsFor(locator string) Stats {
	key, ok := storage.ExtractKey(locator)
	if !ok {
		return Stats{}
	}
	for _, l := range []*storage.Local{v.primary, v.legacy} {
		if l == nil {
			continue
		}
		if size, err := l.Stat(key); err == nil {
			return Stats{Key: key, Exists: true, Size: size, Path: l.Path(key)}
		}
	}
	return Stats{Key: key}
}

func (v *Validator) existsLocally(key string) bool {
	for _, l := range []*storage.Local{v.primary, v.legacy} {
		if l == nil {
			continue
		}
		if ok, err := l.Exists(context.Background(), key); err == nil && ok {
			return true
		}
	}
	return false
}
