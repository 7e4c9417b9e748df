package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func runI18N(t *testing.T, lookup CountryLookup, mutate func(*http.Request)) (locale, country string) {
	t.Helper()
	handler := I18N("en", lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale = LocaleFromContext(r.Context())
		country = CountryFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	if mutate != nil {
		mutate(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return locale, country
}

func TestI18NExplicitLocaleHeaderWins(t *testing.T) {
	locale, _ := runI18N(t, nil, func(r *http.Request) {
		r.Header.Set("X-Locale", "id-ID")
		r.Header.Set("Accept-Language", "zh-CN")
	})
	if locale != "id" {
		t.Fatalf("locale = %q, want id", locale)
	}
}

func TestI18NAcceptLanguageNegotiation(t *testing.T) {
	locale, _ := runI18N(t, nil, func(r *http.Request) {
		r.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.5")
	})
	if locale != "zh" {
		t.Fatalf("locale = %q, want zh", locale)
	}
}

func TestI18NUnsupportedLocaleFallsBack(t *testing.T) {
	locale, _ := runI18N(t, nil, func(r *http.Request) {
		r.Header.Set("X-Locale", "not a locale !!")
	})
	if locale != "en" {
		t.Fatalf("locale = %q, want en", locale)
	}
}

func TestI18NCountryHeaderHint(t *testing.T) {
	locale, country := runI18N(t, nil, func(r *http.Request) {
		r.Header.Set("CF-IPCountry", "id")
	})
	if country != "ID" {
		t.Fatalf("country = %q, want ID", country)
	}
	if locale != "id" {
		t.Fatalf("locale = %q, want id via country heuristic", locale)
	}
}

func TestI18NGeoIPLookupLast(t *testing.T) {
	var lookedUp string
	lookup := func(ip string) (string, error) {
		lookedUp = ip
		return "cn", nil
	}
	locale, country := runI18N(t, lookup, nil)
	if lookedUp != "203.0.113.7" {
		t.Fatalf("lookup ip = %q", lookedUp)
	}
	if country != "CN" {
		t.Fatalf("country = %q, want CN", country)
	}
	if locale != "zh" {
		t.Fatalf("locale = %q, want zh", locale)
	}
}

func TestI18NLookupErrorIgnored(t *testing.T) {
	lookup := func(string) (string, error) { return "", errors.New("db closed") }
	locale, country := runI18N(t, lookup, nil)
	if country != "" {
		t.Fatalf("country = %q, want empty", country)
	}
	if locale != "en" {
		t.Fatalf("locale = %q, want default", locale)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	if got := ClientIP(req); got != "198.51.100.4" {
		t.Fatalf("ClientIP = %q", got)
	}
}
