package loaders

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/spaghettifunk/ember/engine/resources"
	"github.com/spaghettifunk/ember/engine/tasks"
)

func newLoaderTestManager(t *testing.T) (*resources.ResourceManager, *resources.MemoryResourceIO) {
	t.Helper()
	pool, err := tasks.NewPool(2, 8)
	if err != nil {
		t.Fatalf("NewPool failed: %v", err)
	}
	t.Cleanup(func() { pool.Shutdown() })

	rm := resources.NewResourceManager(pool)
	io := resources.NewMemoryResourceIO()
	rm.SetDefaultIO(io)
	return rm, io
}

func TestBinaryLoader(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&BinaryLoader{})
	io.AddFile("shaders/basic.spv", []byte{0x03, 0x02, 0x23, 0x07})

	res := resources.RequestSync[BinaryData](context.Background(), rm, "shaders/basic.spv")
	data, ok := res.AsLoadedRef()
	if !ok {
		t.Fatalf("expected Ok, got %s", res.Untyped.State())
	}
	if !bytes.Equal(data.Bytes, []byte{0x03, 0x02, 0x23, 0x07}) {
		t.Fatalf("bytes not passed through: %v", data.Bytes)
	}
}

func TestTextLoader(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&TextLoader{})
	io.AddFile("readme.md", []byte("# hello"))

	res := resources.RequestSync[TextData](context.Background(), rm, "readme.md")
	data, ok := res.AsLoadedRef()
	if !ok || data.Text != "# hello" {
		t.Fatalf("unexpected text payload: %#v (ok=%v)", data, ok)
	}
}

// encodePNG builds a width x height image where row y is a solid shade of
// gray with value y, so flips are observable per row.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(y), G: uint8(y), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestImageLoader(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&ImageLoader{})
	io.AddFile("tex/gradient.png", encodePNG(t, 4, 3))

	res := resources.RequestSync[ImageData](context.Background(), rm, "tex/gradient.png")
	data, ok := res.AsLoadedRef()
	if !ok {
		t.Fatalf("expected Ok, got %s", res.Untyped.State())
	}
	if data.Width != 4 || data.Height != 3 || data.ChannelCount != 4 {
		t.Fatalf("unexpected dimensions: %dx%d / %d channels", data.Width, data.Height, data.ChannelCount)
	}
	if len(data.Pixels) != 4*3*4 {
		t.Fatalf("unexpected pixel buffer length %d", len(data.Pixels))
	}
	// Top row is shade 0, bottom row shade 2.
	if data.Pixels[0] != 0 {
		t.Fatalf("top-left red should be 0, got %d", data.Pixels[0])
	}
	if bottom := data.Pixels[2*4*4]; bottom != 2 {
		t.Fatalf("bottom-left red should be 2, got %d", bottom)
	}
}

func TestImageLoaderFlipY(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&ImageLoader{})
	io.AddFile("tex/gradient.png", encodePNG(t, 4, 3))
	io.AddFile("tex/gradient.png.meta", []byte(
		"format_version = \"1.0\"\n\n[settings]\nflip_y = true\n"))

	res := resources.RequestSync[ImageData](context.Background(), rm, "tex/gradient.png")
	data, ok := res.AsLoadedRef()
	if !ok {
		t.Fatalf("expected Ok, got %s", res.Untyped.State())
	}
	// After the flip the last source row (shade 2) comes first.
	if data.Pixels[0] != 2 {
		t.Fatalf("flipped top-left red should be 2, got %d", data.Pixels[0])
	}
	if bottom := data.Pixels[2*4*4]; bottom != 0 {
		t.Fatalf("flipped bottom-left red should be 0, got %d", bottom)
	}
}

func TestImageLoaderRejectsGarbage(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&ImageLoader{})
	io.AddFile("tex/broken.png", []byte("not an image"))

	res := rm.LoadSync(context.Background(), "tex/broken.png")
	if res.State() != resources.StateLoadError {
		t.Fatalf("expected LoadError, got %s", res.State())
	}
}

const materialTOML = `name = "stone"
shader = "world"
diffuse_color = [0.8, 0.8, 0.8, 1.0]
diffuse_map = "stone_diffuse.png"
`

func TestMaterialLoader(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&ImageLoader{})
	rm.AddLoader(&MaterialLoader{})
	io.AddFile("materials/stone.mat", []byte(materialTOML))
	io.AddFile("materials/stone_diffuse.png", encodePNG(t, 2, 2))

	res := resources.RequestSync[MaterialData](context.Background(), rm, "materials/stone.mat")
	data, ok := res.AsLoadedRef()
	if !ok {
		t.Fatalf("expected Ok, got %s", res.Untyped.State())
	}
	if data.Name != "stone" || data.ShaderName != "world" {
		t.Fatalf("unexpected material fields: %#v", data)
	}
	if data.DiffuseColor != [4]float32{0.8, 0.8, 0.8, 1.0} {
		t.Fatalf("unexpected diffuse color: %v", data.DiffuseColor)
	}
	if data.DiffuseMap == nil {
		t.Fatal("diffuse map should have been auto-loaded")
	}
	img, ok := data.DiffuseMap.AsLoadedRef()
	if !ok || img.Width != 2 {
		t.Fatalf("diffuse map not loaded: %#v (ok=%v)", img, ok)
	}
}

func TestMaterialLoaderSkipsMapsWhenDisabled(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&ImageLoader{})
	rm.AddLoader(&MaterialLoader{})
	io.AddFile("materials/stone.mat", []byte(materialTOML))
	io.AddFile("materials/stone.mat.meta", []byte(
		"format_version = \"1.0\"\n\n[settings]\nauto_load_maps = false\n"))

	res := resources.RequestSync[MaterialData](context.Background(), rm, "materials/stone.mat")
	data, ok := res.AsLoadedRef()
	if !ok {
		t.Fatalf("expected Ok, got %s", res.Untyped.State())
	}
	if data.DiffuseMap != nil {
		t.Fatal("auto_load_maps = false must leave the map unloaded")
	}
}

func TestMaterialLoaderMissingMap(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&ImageLoader{})
	rm.AddLoader(&MaterialLoader{})
	io.AddFile("materials/stone.mat", []byte(materialTOML))

	res := rm.LoadSync(context.Background(), "materials/stone.mat")
	if res.State() != resources.StateLoadError {
		t.Fatalf("a missing referenced texture must fail the material, got %s", res.State())
	}
}

func TestMaterialLoaderRequiresName(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&MaterialLoader{})
	io.AddFile("materials/anon.mat", []byte("shader = \"world\"\n"))

	res := rm.LoadSync(context.Background(), "materials/anon.mat")
	if res.State() != resources.StateLoadError {
		t.Fatalf("a nameless material must fail, got %s", res.State())
	}
}

const fontDescriptor = `info face="Arial" size=32 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=1 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=36 base=29 scaleW=256 scaleH=256 pages=1 packed=0 alphaChnl=1 redChnl=0 greenChnl=0 blueChnl=0
page id=0 file="arial_0.png"
chars count=1
char id=65 x=2 y=2 width=20 height=24 xoffset=0 yoffset=5 xadvance=21 page=0 chnl=15
`

func TestBitmapFontLoaderDescriptorOnly(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&BitmapFontLoader{})
	io.AddFile("fonts/arial.fnt", []byte(fontDescriptor))

	res := resources.RequestSync[BitmapFontData](context.Background(), rm, "fonts/arial.fnt")
	data, ok := res.AsLoadedRef()
	if !ok {
		t.Fatalf("expected Ok, got %s", res.Untyped.State())
	}
	if data.Descriptor.Info.Size != 32 {
		t.Fatalf("descriptor not parsed: size %d", data.Descriptor.Info.Size)
	}
	if len(data.Pages) != 0 {
		t.Fatal("pages must stay unloaded by default")
	}
}

func TestBitmapFontLoaderWithPages(t *testing.T) {
	rm, io := newLoaderTestManager(t)
	rm.AddLoader(&ImageLoader{})
	rm.AddLoader(&BitmapFontLoader{})
	io.AddFile("fonts/arial.fnt", []byte(fontDescriptor))
	io.AddFile("fonts/arial_0.png", encodePNG(t, 2, 2))
	io.AddFile("fonts/arial.fnt.meta", []byte(
		"format_version = \"1.0\"\n\n[settings]\nload_pages = true\n"))

	res := resources.RequestSync[BitmapFontData](context.Background(), rm, "fonts/arial.fnt")
	data, ok := res.AsLoadedRef()
	if !ok {
		t.Fatalf("expected Ok, got %s", res.Untyped.State())
	}
	page, ok := data.Pages[0]
	if !ok {
		t.Fatal("page 0 should be loaded")
	}
	img, ok := page.AsLoadedRef()
	if !ok || img.Width != 2 {
		t.Fatalf("page texture not loaded: %#v (ok=%v)", img, ok)
	}
}
