package loaders

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"

	// Decoders register themselves with image.Decode.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"

	"github.com/google/uuid"
	"github.com/spaghettifunk/ember/engine/resources"
)

var ImageDataTypeUUID = uuid.MustParse("4a9d8c3b-2e1f-4b6a-9c0d-5e7f8a1b2c3d")

// ImageData is a decoded image as tightly packed 8-bit RGBA rows.
type ImageData struct {
	Width        uint32
	Height       uint32
	ChannelCount uint8
	Pixels       []uint8
}

func (d ImageData) TypeUUID() uuid.UUID {
	return ImageDataTypeUUID
}

// ImageSettings controls the decode. FlipY flips rows so the origin matches
// bottom-left texture coordinate conventions.
type ImageSettings struct {
	FlipY bool `toml:"flip_y"`
}

func (s *ImageSettings) CloneSettings() resources.ResourceSettings {
	clone := *s
	return &clone
}

type ImageLoader struct{}

func (l *ImageLoader) Extensions() []string {
	return []string{"png", "jpg", "jpeg", "bmp"}
}

func (l *ImageLoader) DataTypeUUID() uuid.UUID {
	return ImageDataTypeUUID
}

func (l *ImageLoader) DefaultSettings() resources.ResourceSettings {
	return &ImageSettings{}
}

func (l *ImageLoader) Load(ctx context.Context, path resources.ResourcePath, load *resources.LoadContext) (resources.ResourceData, error) {
	raw, err := load.IO.LoadFile(ctx, path.Path())
	if err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image '%s': %w", path, err)
	}

	bounds := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)

	settings, ok := load.Settings.(*ImageSettings)
	if !ok {
		settings = &ImageSettings{}
	}
	if settings.FlipY {
		flipRows(nrgba)
	}

	data := &ImageData{
		Width:        uint32(bounds.Dx()),
		Height:       uint32(bounds.Dy()),
		ChannelCount: 4,
		Pixels:       nrgba.Pix,
	}
	return data, nil
}

func flipRows(img *image.NRGBA) {
	height := img.Bounds().Dy()
	stride := img.Stride
	tmp := make([]uint8, stride)
	for y := 0; y < height/2; y++ {
		top := img.Pix[y*stride : (y+1)*stride]
		bottom := img.Pix[(height-1-y)*stride : (height-y)*stride]
		copy(tmp, top)
		copy(top, bottom)
		copy(bottom, tmp)
	}
}
