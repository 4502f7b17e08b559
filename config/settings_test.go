package config

import (
	"path/filepath"
	"testing"
)

func TestManagerLoadCreatesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "settings.json"))

	s, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Server.Port != 7777 {
		t.Fatalf("Port = %d, want default 7777", s.Server.Port)
	}

	// a second load must read back exactly what was just persisted
	s2, err := m.Load()
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if s2 != s {
		t.Fatalf("second load %+v does not match first %+v", s2, s)
	}
}

func TestManagerLoadBackfillsMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	m := NewManager(path)

	if err := m.Save(Settings{Server: ServerSettings{Host: "0.0.0.0"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Server.Port != 7777 {
		t.Fatalf("Port = %d, want backfilled default 7777", s.Server.Port)
	}
	if s.List.CacheLimit != 10 || s.List.PrefetchN != 3 {
		t.Fatalf("List = %+v, want backfilled cache_limit=10 prefetch_n=3", s.List)
	}
	if s.Server.Host != "0.0.0.0" {
		t.Fatalf("Host = %q, want the explicitly saved value preserved", s.Server.Host)
	}
}

func TestManagerSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	m := NewManager(path)

	if err := m.Save(DefaultSettings()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load after Save: %v", err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("temp files left behind after Save: %v", matches)
	}
}

func TestListSettingsApplyToSkipsEmptyFields(t *testing.T) {
	reg := NewRegistry()
	var seen []string
	reg.Register("list", func(key, value string) Result {
		seen = append(seen, key)
		return OK
	})

	ls := ListSettings{URL: "http://example.invalid/img", CacheLimit: 5}
	results := ls.ApplyTo(reg)

	for _, r := range results {
		if r != OK {
			t.Fatalf("unexpected non-OK result: %v", r)
		}
	}
	for _, key := range seen {
		if key == "source" || key == "www_cache" || key == "no_image_asset" {
			t.Fatalf("did not expect empty field %q to be applied", key)
		}
	}
	var sawURL, sawLimit bool
	for _, key := range seen {
		if key == "www_url" {
			sawURL = true
		}
		if key == "www_cache_limit" {
			sawLimit = true
		}
	}
	if !sawURL || !sawLimit {
		t.Fatalf("expected www_url and www_cache_limit to be applied, got %v", seen)
	}
}

func TestListSettingsApplyToHandlesMultiDigitValues(t *testing.T) {
	reg := NewRegistry()
	var gotLimit, gotPrefetch string
	reg.Register("list", func(key, value string) Result {
		switch key {
		case "www_cache_limit":
			gotLimit = value
		case "www_prefetch_n":
			gotPrefetch = value
		}
		return OK
	})

	ls := ListSettings{CacheLimit: 25, PrefetchN: 12}
	ls.ApplyTo(reg)

	if gotLimit != "25" {
		t.Fatalf("www_cache_limit = %q, want %q", gotLimit, "25")
	}
	if gotPrefetch != "12" {
		t.Fatalf("www_prefetch_n = %q, want %q", gotPrefetch, "12")
	}
}
