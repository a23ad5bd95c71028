package loaders

import (
	"context"

	"github.com/google/uuid"
	"github.com/spaghettifunk/ember/engine/resources"
)

var TextDataTypeUUID = uuid.MustParse("6a2f0c2e-94d1-4c4d-8f8e-1b7f6f2b9c4a")

type TextData struct {
	Text string
}

func (d TextData) TypeUUID() uuid.UUID {
	return TextDataTypeUUID
}

// TextLoader reads an asset file as UTF-8 text.
type TextLoader struct{}

func (l *TextLoader) Extensions() []string {
	return []string{"txt", "md", "glsl"}
}

func (l *TextLoader) DataTypeUUID() uuid.UUID {
	return TextDataTypeUUID
}

func (l *TextLoader) DefaultSettings() resources.ResourceSettings {
	return &resources.NoSettings{}
}

func (l *TextLoader) Load(ctx context.Context, path resources.ResourcePath, load *resources.LoadContext) (resources.ResourceData, error) {
	raw, err := load.IO.LoadFile(ctx, path.Path())
	if err != nil {
		return nil, err
	}
	return &TextData{Text: string(raw)}, nil
}
