package loaders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/ember/engine/resources"
)

var MaterialDataTypeUUID = uuid.MustParse("0d2b5a7e-6c4f-4d19-9e3a-8b1c2d3e4f5a")

// MaterialData is a parsed material definition. DiffuseMap is populated when
// the definition names one and the settings allow loading it.
type MaterialData struct {
	Name         string
	ShaderName   string
	DiffuseColor [4]float32
	DiffuseMap   *resources.Resource[ImageData]
}

func (d MaterialData) TypeUUID() uuid.UUID {
	return MaterialDataTypeUUID
}

// MaterialSettings - AutoLoadMaps pulls referenced texture maps in as
// sub-resources during the material load itself.
type MaterialSettings struct {
	AutoLoadMaps bool `toml:"auto_load_maps"`
}

func (s *MaterialSettings) CloneSettings() resources.ResourceSettings {
	clone := *s
	return &clone
}

// materialFile is the persisted TOML form of a material.
type materialFile struct {
	Name         string     `toml:"name"`
	Shader       string     `toml:"shader"`
	DiffuseColor [4]float32 `toml:"diffuse_color"`
	DiffuseMap   string     `toml:"diffuse_map"`
}

// MaterialLoader parses .mat TOML files. Texture references inside the file
// are resolved relative to the material's directory.
type MaterialLoader struct{}

func (l *MaterialLoader) Extensions() []string {
	return []string{"mat"}
}

func (l *MaterialLoader) DataTypeUUID() uuid.UUID {
	return MaterialDataTypeUUID
}

func (l *MaterialLoader) DefaultSettings() resources.ResourceSettings {
	return &MaterialSettings{AutoLoadMaps: true}
}

func (l *MaterialLoader) Load(ctx context.Context, path resources.ResourcePath, load *resources.LoadContext) (resources.ResourceData, error) {
	raw, err := load.IO.LoadFile(ctx, path.Path())
	if err != nil {
		return nil, err
	}

	var file materialFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("cannot parse material '%s': %w", path, err)
	}
	if file.Name == "" {
		return nil, fmt.Errorf("material '%s' has no name", path)
	}

	data := &MaterialData{
		Name:         file.Name,
		ShaderName:   file.Shader,
		DiffuseColor: file.DiffuseColor,
	}

	settings, ok := load.Settings.(*MaterialSettings)
	autoLoad := !ok || settings.AutoLoadMaps
	if file.DiffuseMap != "" && autoLoad {
		mapPath, err := path.ResolveEmbed(file.DiffuseMap)
		if err != nil {
			return nil, fmt.Errorf("material '%s' diffuse map: %w", path, err)
		}
		sub := load.Manager.LoadSync(ctx, mapPath.String())
		if err := sub.LoadError(); err != nil {
			return nil, fmt.Errorf("material '%s' diffuse map '%s': %w", path, mapPath, err)
		}
		diffuse := resources.Typed[ImageData](sub)
		data.DiffuseMap = &diffuse
	}

	return data, nil
}
