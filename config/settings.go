package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server ServerSettings `json:"server"`
	Log    LogConfig      `json:"log"`
	List   ListSettings   `json:"list"`
}

// ServerSettings configures the optional debug/admin HTTP surface.
type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// LogConfig controls the rotating file log sink.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// ListSettings is the on-disk shape of the "list" configuration section.
// It exists alongside config.Registry: Manager loads/saves it as part of
// the whole typed Settings struct, while Registry lets the image list
// facade also accept key/value pairs one at a time from a looser,
// section-oriented source.
type ListSettings struct {
	Source       string `json:"source"`
	URL          string `json:"wwwUrl"`
	CacheDir     string `json:"wwwCache"`
	CacheLimit   int    `json:"wwwCacheLimit"`
	PrefetchN    int    `json:"wwwPrefetchN"`
	SaveToFile   bool   `json:"wwwSaveToFile"`
	CleanupCache bool   `json:"wwwCleanupCache"`
	NoImageAsset string `json:"noImageAsset"`
}

// DefaultSettings returns sane defaults for a fresh install.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "127.0.0.1", Port: 7777},
		Log: LogConfig{
			File:       "cache/logs/imgviewer.log",
			Level:      "info",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
		List: ListSettings{
			CacheDir:   "cache/images",
			CacheLimit: 10,
			PrefetchN:  3,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

// EnsureDir ensures the settings file's parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads the settings file from disk, creating it with defaults if
// missing, and backfills any fields a config predating them would lack.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}

	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = "cache/logs/imgviewer.log"
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = 50
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = 3
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = 7
	}
	if s.List.CacheLimit == 0 {
		s.List.CacheLimit = 10
	}
	if s.List.PrefetchN == 0 {
		s.List.PrefetchN = 3
	}
	if s.Server.Port == 0 {
		s.Server.Port = 7777
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}

// ApplyTo feeds every non-empty string field, every positive integer field
// and both boolean fields (false included) of List through reg's "list"
// section handler, bridging the whole-struct Manager and the key-at-a-time
// Registry so both configuration surfaces stay consistent.
func (s ListSettings) ApplyTo(reg *Registry) []Result {
	pairs := [][2]string{
		{"source", s.Source},
		{"www_url", s.URL},
		{"www_cache", s.CacheDir},
		{"no_image_asset", s.NoImageAsset},
	}
	if s.CacheLimit > 0 {
		pairs = append(pairs, [2]string{"www_cache_limit", strconv.Itoa(s.CacheLimit)})
	}
	if s.PrefetchN > 0 {
		pairs = append(pairs, [2]string{"www_prefetch_n", strconv.Itoa(s.PrefetchN)})
	}
	pairs = append(pairs,
		[2]string{"www_save_to_file", formatBool(s.SaveToFile)},
		[2]string{"www_cleanup_cache", formatBool(s.CleanupCache)},
	)

	results := make([]Result, 0, len(pairs))
	for _, kv := range pairs {
		if kv[1] == "" {
			continue
		}
		results = append(results, reg.Apply("list", kv[0], kv[1]))
	}
	return results
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
