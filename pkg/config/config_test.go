package config

import (
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.Upload.PrivacyStatus != defaultPrivacyStatus {
		t.Errorf("PrivacyStatus = %q, want %q", cfg.Upload.PrivacyStatus, defaultPrivacyStatus)
	}
	if cfg.Upload.CategoryID != defaultCategoryID {
		t.Errorf("CategoryID = %q, want %q", cfg.Upload.CategoryID, defaultCategoryID)
	}
	if len(cfg.Upload.DefaultTags) == 0 {
		t.Error("DefaultTags should have defaults")
	}
	if cfg.API.WatchURL != defaultWatchURL {
		t.Errorf("WatchURL = %q, want %q", cfg.API.WatchURL, defaultWatchURL)
	}
	if cfg.Broker.ListenAddr != defaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.Broker.ListenAddr, defaultListenAddr)
	}
	if cfg.Footage.CacheDir != defaultCacheDir {
		t.Errorf("CacheDir = %q, want %q", cfg.Footage.CacheDir, defaultCacheDir)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Upload.PrivacyStatus = "unlisted"
	cfg.Upload.DefaultTags = []string{"u17"}
	cfg.API.UploadURL = "http://localhost:9999/upload"
	applyDefaults(cfg)

	if cfg.Upload.PrivacyStatus != "unlisted" {
		t.Errorf("PrivacyStatus = %q, want explicit value kept", cfg.Upload.PrivacyStatus)
	}
	if len(cfg.Upload.DefaultTags) != 1 || cfg.Upload.DefaultTags[0] != "u17" {
		t.Errorf("DefaultTags = %v, want explicit value kept", cfg.Upload.DefaultTags)
	}
	if cfg.API.UploadURL != "http://localhost:9999/upload" {
		t.Errorf("UploadURL = %q, want explicit value kept", cfg.API.UploadURL)
	}
}
