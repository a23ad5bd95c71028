package resources

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type tintSettings struct {
	Strength float64 `toml:"strength"`
	Mode     string  `toml:"mode"`
}

func (s *tintSettings) CloneSettings() ResourceSettings {
	clone := *s
	return &clone
}

func TestMetasRegisterAndClone(t *testing.T) {
	metas := NewResourceMetas()
	id := uuid.MustParse("55c5f9a1-8d27-4a3f-9d2d-6be09a7e9f10")
	metas.Register(&stubLoader{typeUUID: id, settings: &tintSettings{Strength: 1.0}})

	settings, ok := metas.Settings(id).(*tintSettings)
	if !ok || settings.Strength != 1.0 {
		t.Fatalf("registered settings must resolve, got %#v", settings)
	}
	if metas.Settings(uuid.New()) != nil {
		t.Fatal("unregistered uuid must resolve to nil")
	}
	// Each lookup yields an independent clone.
	if settings == metas.Settings(id).(*tintSettings) {
		t.Fatal("Settings must clone, not share")
	}
}

func TestLoadMetaSettingsOverlay(t *testing.T) {
	io := NewMemoryResourceIO()
	io.AddFile("tex/stone.png.meta", []byte(
		"format_version = \"1.0\"\n\n[settings]\nstrength = 0.5\n"))

	defaults := &tintSettings{Strength: 1.0, Mode: "linear"}
	got, err := loadMetaSettings(context.Background(), io, ParsePath("tex/stone.png"), defaults)
	if err != nil {
		t.Fatalf("loadMetaSettings failed: %v", err)
	}
	tinted := got.(*tintSettings)
	if tinted.Strength != 0.5 {
		t.Fatalf("strength not overlaid: %v", tinted.Strength)
	}
	if tinted.Mode != "linear" {
		t.Fatalf("unspecified field must keep its default: %q", tinted.Mode)
	}
	if defaults.Strength != 1.0 {
		t.Fatal("defaults must stay untouched")
	}
}

func TestLoadMetaSettingsNoFile(t *testing.T) {
	defaults := &tintSettings{Strength: 1.0}
	got, err := loadMetaSettings(context.Background(), NewMemoryResourceIO(), ParsePath("a.png"), defaults)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != ResourceSettings(defaults) {
		t.Fatal("without a meta file the defaults pass through unchanged")
	}
}

func TestLoadMetaSettingsBadVersion(t *testing.T) {
	io := NewMemoryResourceIO()
	io.AddFile("a.png.meta", []byte("format_version = \"9.9\"\n"))

	if _, err := loadMetaSettings(context.Background(), io, ParsePath("a.png"), &tintSettings{}); err == nil {
		t.Fatal("a version mismatch must be an error")
	}
}

func TestLoadMetaSettingsMalformed(t *testing.T) {
	io := NewMemoryResourceIO()
	io.AddFile("a.png.meta", []byte("not toml ==="))

	if _, err := loadMetaSettings(context.Background(), io, ParsePath("a.png"), &tintSettings{}); err == nil {
		t.Fatal("malformed TOML must be an error")
	}
}
