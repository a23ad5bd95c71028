package loaders

import (
	"bytes"
	"context"
	"fmt"

	"github.com/fzipp/bmfont"
	"github.com/google/uuid"
	"github.com/spaghettifunk/ember/engine/resources"
)

var BitmapFontDataTypeUUID = uuid.MustParse("f7c5ae2d-9b14-4e83-b1dd-7a40c2a0f4e6")

// BitmapFontData is a parsed AngelCode .fnt descriptor plus the page images
// it references, loaded as sub-resources when requested.
type BitmapFontData struct {
	Descriptor *bmfont.Descriptor
	Pages      map[int]resources.Resource[ImageData]
}

func (d BitmapFontData) TypeUUID() uuid.UUID {
	return BitmapFontDataTypeUUID
}

// BitmapFontSettings controls whether the page textures referenced by the
// descriptor are loaded alongside it.
type BitmapFontSettings struct {
	LoadPages bool `toml:"load_pages"`
}

func (s *BitmapFontSettings) CloneSettings() resources.ResourceSettings {
	clone := *s
	return &clone
}

type BitmapFontLoader struct{}

func (l *BitmapFontLoader) Extensions() []string {
	return []string{"fnt"}
}

func (l *BitmapFontLoader) DataTypeUUID() uuid.UUID {
	return BitmapFontDataTypeUUID
}

func (l *BitmapFontLoader) DefaultSettings() resources.ResourceSettings {
	return &BitmapFontSettings{}
}

func (l *BitmapFontLoader) Load(ctx context.Context, path resources.ResourcePath, load *resources.LoadContext) (resources.ResourceData, error) {
	raw, err := load.IO.LoadFile(ctx, path.Path())
	if err != nil {
		return nil, err
	}

	desc, err := bmfont.ReadDescriptor(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("cannot parse bitmap font '%s': %w", path, err)
	}

	data := &BitmapFontData{
		Descriptor: desc,
		Pages:      make(map[int]resources.Resource[ImageData]),
	}

	settings, ok := load.Settings.(*BitmapFontSettings)
	if ok && settings.LoadPages {
		for _, page := range desc.Pages {
			pagePath, err := path.ResolveEmbed(page.File)
			if err != nil {
				return nil, fmt.Errorf("bitmap font '%s' page %d: %w", path, page.ID, err)
			}
			sub := load.Manager.LoadSync(ctx, pagePath.String())
			if err := sub.LoadError(); err != nil {
				return nil, fmt.Errorf("bitmap font '%s' page '%s': %w", path, pagePath, err)
			}
			data.Pages[page.ID] = resources.Typed[ImageData](sub)
		}
	}

	return data, nil
}
