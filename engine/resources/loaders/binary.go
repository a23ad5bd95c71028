package loaders

import (
	"context"

	"github.com/google/uuid"
	"github.com/spaghettifunk/ember/engine/resources"
)

var BinaryDataTypeUUID = uuid.MustParse("1c9a587f-3f49-44e5-a264-a9e2d75c18f3")

// BinaryData is the raw, undecoded contents of an asset file.
type BinaryData struct {
	Bytes []byte
}

func (d BinaryData) TypeUUID() uuid.UUID {
	return BinaryDataTypeUUID
}

// BinaryLoader hands the file contents through untouched. It is the loader
// of last resort for formats the engine treats as opaque blobs.
type BinaryLoader struct{}

func (l *BinaryLoader) Extensions() []string {
	return []string{"bin", "dat", "spv"}
}

func (l *BinaryLoader) DataTypeUUID() uuid.UUID {
	return BinaryDataTypeUUID
}

func (l *BinaryLoader) DefaultSettings() resources.ResourceSettings {
	return &resources.NoSettings{}
}

func (l *BinaryLoader) Load(ctx context.Context, path resources.ResourcePath, load *resources.LoadContext) (resources.ResourceData, error) {
	raw, err := load.IO.LoadFile(ctx, path.Path())
	if err != nil {
		return nil, err
	}
	return &BinaryData{Bytes: raw}, nil
}
