package resources

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
)

// MetaFormatVersion is written into every persisted meta file; files with a
// different version are rejected rather than half-understood.
const MetaFormatVersion = "1.0"

// metaExtension is appended to an asset path to find its meta file:
// "textures/stone.png" -> "textures/stone.png.meta".
const metaExtension = ".meta"

// ResourceMeta is the in-memory metadata entry for one loader's data type:
// the settings produced when an asset carries no persisted overrides.
type ResourceMeta struct {
	FormatVersion string
	Settings      ResourceSettings
}

// ResourceMetas keeps default loader settings keyed by data-type UUID so
// loads without explicit per-asset settings still produce a valid value.
type ResourceMetas struct {
	mu    sync.RWMutex
	metas map[uuid.UUID]*ResourceMeta
}

func NewResourceMetas() *ResourceMetas {
	return &ResourceMetas{metas: make(map[uuid.UUID]*ResourceMeta)}
}

// Register stores the loader's default settings under its data-type UUID.
func (m *ResourceMetas) Register(loader ResourceLoader) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metas[loader.DataTypeUUID()] = &ResourceMeta{
		FormatVersion: MetaFormatVersion,
		Settings:      loader.DefaultSettings(),
	}
}

// Settings returns a clone of the registered default settings for the data
// type, or nil when the type was never registered.
func (m *ResourceMetas) Settings(typeUUID uuid.UUID) ResourceSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	meta, ok := m.metas[typeUUID]
	if !ok {
		return nil
	}
	return meta.Settings.CloneSettings()
}

// metaFile is the persisted form: a TOML document with a format version and
// a free-form settings table decoded against the loader's settings type.
type metaFile struct {
	FormatVersion string                 `toml:"format_version"`
	Settings      map[string]interface{} `toml:"settings"`
}

// loadMetaSettings overlays the asset's .meta file, if present, over the
// given defaults. The defaults are returned untouched when no meta file
// exists; an unreadable or version-mismatched file is an error and the
// caller decides whether to fall back.
func loadMetaSettings(ctx context.Context, io ResourceIO, path ResourcePath, defaults ResourceSettings) (ResourceSettings, error) {
	metaPath := path.Path() + metaExtension
	if !io.IsFile(ctx, metaPath) {
		return defaults, nil
	}
	raw, err := io.LoadFile(ctx, metaPath)
	if err != nil {
		return defaults, err
	}

	var file metaFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return defaults, fmt.Errorf("malformed meta file '%s': %w", metaPath, err)
	}
	if file.FormatVersion != "" && file.FormatVersion != MetaFormatVersion {
		return defaults, fmt.Errorf("meta file '%s' has unsupported format version %q", metaPath, file.FormatVersion)
	}
	if len(file.Settings) == 0 {
		return defaults, nil
	}

	// Round-trip the settings table through TOML onto a clone of the
	// defaults, so unspecified fields keep their default values.
	encoded, err := toml.Marshal(file.Settings)
	if err != nil {
		return defaults, fmt.Errorf("meta file '%s': %w", metaPath, err)
	}
	overlaid := defaults.CloneSettings()
	if err := toml.Unmarshal(encoded, overlaid); err != nil {
		return defaults, fmt.Errorf("meta file '%s' does not match the loader settings: %w", metaPath, err)
	}
	return overlaid, nil
}
