package generation

import (
	"testing"
	"time"
)

func TestClampSteps(t *testing.T) {
	p := Profile{DefaultSteps: 25, MaxSteps: 50, MaxAttempts: 30, Timeout: 180 * time.Second}
	cases := []struct {
		requested int
		want      int
	}{
		{0, 25},
		{-3, 25},
		{1, 1},
		{25, 25},
		{50, 50},
		{51, 50},
		{10000, 50},
	}
	for _, tc := range cases {
		if got := p.ClampSteps(tc.requested); got != tc.want {
			t.Fatalf("ClampSteps(%d) = %d, want %d", tc.requested, got, tc.want)
		}
	}
}

func TestLookupProfileKnownKinds(t *testing.T) {
	for _, kind := range []string{"image", "image-turbo", "video", "video-pro", "audio", "music", "model3d"} {
		p, ok := LookupProfile(kind)
		if !ok {
			t.Fatalf("kind %q missing from registry", kind)
		}
		if p.DefaultSteps <= 0 || p.MaxSteps < p.DefaultSteps {
			t.Fatalf("kind %q has inconsistent step bounds: %+v", kind, p)
		}
		if p.MaxAttempts <= 0 || p.Timeout <= 0 {
			t.Fatalf("kind %q has no polling budget: %+v", kind, p)
		}
	}
}

func TestLookupProfileUnknownKind(t *testing.T) {
	if _, ok := LookupProfile("hologram"); ok {
		t.Fatalf("unknown kind must not resolve")
	}
}

func TestProfilesReturnsCopy(t *testing.T) {
	first := Profiles()
	first["image"] = Profile{DefaultSteps: 1, MaxSteps: 1, MaxAttempts: 1, Timeout: time.Second}
	second := Profiles()
	if second["image"].DefaultSteps == 1 {
		t.Fatalf("mutating the returned map must not affect the registry")
	}
}

func TestPollInterval(t *testing.T) {
	cases := []struct {
		name string
		prof Profile
		want time.Duration
	}{
		{"derived", Profile{MaxAttempts: 30, Timeout: 180 * time.Second}, 5 * time.Second},
		{"below cap", Profile{MaxAttempts: 20, Timeout: 60 * time.Second}, 3 * time.Second},
		{"capped", Profile{MaxAttempts: 2, Timeout: 600 * time.Second}, 5 * time.Second},
		{"floored", Profile{MaxAttempts: 100, Timeout: time.Second}, 100 * time.Millisecond},
		{"no attempts", Profile{MaxAttempts: 0, Timeout: 60 * time.Second}, 5 * time.Second},
	}
	for _, tc := range cases {
		if got := pollInterval(tc.prof); got != tc.want {
			t.Fatalf("%s: pollInterval = %v, want %v", tc.name, got, tc.want)
		}
	}
}
