package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHostLabel(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{"standard http", "http://example.com/path", "example.com"},
		{"standard https", "https://Example.com/path", "example.com"},
		{"prism listing", "https://data.prism.oregonstate.edu/time_series/us/an/800m/ppt/monthly/", "data.prism.oregonstate.edu"},
		{"no scheme", "example.com/path", "example.com"},
		{"just host", "example.com", "example.com"},
		{"host with port", "example.com:8080", "example.com"},
		{"ip address", "192.168.1.1", "192.168.1.1"},
		{"invalid url", "http://%", "unknown"},
		{"empty string", "", "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HostLabel(tc.input); got != tc.expected {
				t.Errorf("HostLabel(%q) = %q; want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestInit(t *testing.T) {
	// Reset collectors for testing purposes.
	fetchRequestsTotal = nil
	fetchDurationSeconds = nil
	fetchRetriesTotal = nil
	fetchExhaustedTotal = nil
	catalogActiveWorkers = nil

	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if fetchRequestsTotal == nil || fetchDurationSeconds == nil ||
		fetchRetriesTotal == nil || fetchExhaustedTotal == nil || catalogActiveWorkers == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}

	// A simple check to see if the collectors can be used.
	ObserveFetch("https://data.prism.oregonstate.edu/", "ok", 120*time.Millisecond)
	if val := testutil.ToFloat64(fetchRequestsTotal); val != 1 {
		t.Errorf("Expected fetchRequestsTotal to be 1, got %f", val)
	}

	before := testutil.ToFloat64(fetchRetriesTotal)
	ObserveRetry()
	if val := testutil.ToFloat64(fetchRetriesTotal); val != before+1 {
		t.Errorf("Expected fetchRetriesTotal to be %f, got %f", before+1, val)
	}

	IncActiveWorkers()
	if val := testutil.ToFloat64(catalogActiveWorkers); val != 1 {
		t.Errorf("Expected catalogActiveWorkers to be 1, got %f", val)
	}
	DecActiveWorkers()
	if val := testutil.ToFloat64(catalogActiveWorkers); val != 0 {
		t.Errorf("Expected catalogActiveWorkers to be 0, got %f", val)
	}
}

// Fuzz test for HostLabel.
func FuzzHostLabel(f *testing.F) {
	testcases := []string{"http://example.com", "https://data.prism.oregonstate.edu", "ftp://example.com"}
	for _, tc := range testcases {
		f.Add(tc)
	}
	f.Fuzz(func(t *testing.T, orig string) {
		label := HostLabel(orig)
		if label == "" {
			t.Errorf("HostLabel(%q) returned an empty string", orig)
		}
	})
}
