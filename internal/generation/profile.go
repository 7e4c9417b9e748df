package generation

import "time"

// Profile holds the tunable limits for one job kind: processing-step bounds,
// the cap on status queries and the wall-clock budget for one orchestration.
type Profile struct {
	DefaultSteps int
	MaxSteps     int
	MaxAttempts  int
	Timeout      time.Duration
}

// ClampSteps maps a caller-requested step count into this profile's bounds.
// Zero or negative means unspecified and falls back to the default.
func (p Profile) ClampSteps(requested int) int {
	if requested <= 0 {
		return p.DefaultSteps
	}
	if requested > p.MaxSteps {
		return p.MaxSteps
	}
	if requested < 1 {
		return 1
	}
	return requested
}

// DefaultProfile is the conservative fallback applied when a kind is not in
// the registry. Unknown kinds never fail the call outright.
var DefaultProfile = Profile{
	DefaultSteps: 25,
	MaxSteps:     50,
	MaxAttempts:  30,
	Timeout:      180 * time.Second,
}

// profiles is the static registry keyed by job kind. Populated once, read-only
// thereafter, safe for unsynchronized concurrent reads.
var profiles = map[string]Profile{
	"image":       {DefaultSteps: 25, MaxSteps: 50, MaxAttempts: 30, Timeout: 180 * time.Second},
	"image-turbo": {DefaultSteps: 8, MaxSteps: 12, MaxAttempts: 20, Timeout: 60 * time.Second},
	"video":       {DefaultSteps: 30, MaxSteps: 50, MaxAttempts: 60, Timeout: 600 * time.Second},
	"video-pro":   {DefaultSteps: 40, MaxSteps: 60, MaxAttempts: 90, Timeout: 900 * time.Second},
	"audio":       {DefaultSteps: 25, MaxSteps: 50, MaxAttempts: 40, Timeout: 300 * time.Second},
	"music":       {DefaultSteps: 25, MaxSteps: 50, MaxAttempts: 60, Timeout: 600 * time.Second},
	"model3d":     {DefaultSteps: 25, MaxSteps: 50, MaxAttempts: 60, Timeout: 600 * time.Second},
}

// Profiles returns a copy of the built-in registry.
func Profiles() map[string]Profile {
	out := make(map[string]Profile, len(profiles))
	for kind, p := range profiles {
		out[kind] = p
	}
	return out
}

// LookupProfile resolves the profile for a kind from the built-in registry.
func LookupProfile(kind string) (Profile, bool) {
	p, ok := profiles[kind]
	return p, ok
}
