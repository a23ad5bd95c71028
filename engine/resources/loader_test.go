package resources

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type stubLoader struct {
	extensions []string
	typeUUID   uuid.UUID
	settings   ResourceSettings
}

func (l *stubLoader) Extensions() []string {
	return l.extensions
}

func (l *stubLoader) DataTypeUUID() uuid.UUID {
	return l.typeUUID
}

func (l *stubLoader) DefaultSettings() ResourceSettings {
	if l.settings != nil {
		return l.settings.CloneSettings()
	}
	return &NoSettings{}
}

func (l *stubLoader) Load(ctx context.Context, path ResourcePath, load *LoadContext) (ResourceData, error) {
	return &testData{}, nil
}

type otherStubLoader struct {
	stubLoader
}

func TestAddReplacesSameConcreteType(t *testing.T) {
	c := NewResourceLoaders()

	first := &stubLoader{extensions: []string{"png"}}
	if prev := c.Add(first); prev != nil {
		t.Fatalf("first registration must not replace anything, got %v", prev)
	}

	second := &stubLoader{extensions: []string{"png", "bmp"}}
	prev := c.Add(second)
	if prev != first {
		t.Fatalf("expected the first loader back, got %v", prev)
	}
	if c.Len() != 1 {
		t.Fatalf("expected a single registered loader, got %d", c.Len())
	}

	if prev := c.Add(&otherStubLoader{stubLoader{extensions: []string{"tga"}}}); prev != nil {
		t.Fatal("a different concrete type must not be replaced")
	}
	if c.Len() != 2 {
		t.Fatalf("expected two registered loaders, got %d", c.Len())
	}
}

func TestFindLoaderCaseInsensitive(t *testing.T) {
	c := NewResourceLoaders()
	loader := &stubLoader{extensions: []string{"png"}}
	c.Add(loader)

	for _, p := range []string{"a.png", "a.PNG", "a.Png"} {
		if got := c.FindLoader(ParsePath(p)); got != loader {
			t.Fatalf("FindLoader(%q) = %v, want the png loader", p, got)
		}
	}
}

func TestFindLoaderSecondaryExtension(t *testing.T) {
	c := NewResourceLoaders()
	loader := &stubLoader{extensions: []string{"toml"}}
	c.Add(loader)

	if got := c.FindLoader(ParsePath("material.config.toml")); got != loader {
		t.Fatal("secondary extension segment should match")
	}
}

func TestFindLoaderNoMatch(t *testing.T) {
	c := NewResourceLoaders()
	c.Add(&stubLoader{extensions: []string{"png"}})

	if got := c.FindLoader(ParsePath("a.xyz")); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	if got := c.FindLoader(ParsePath("no_extension")); got != nil {
		t.Fatalf("expected nil for extension-less path, got %v", got)
	}
}

func TestFindLoaderFirstMatchWins(t *testing.T) {
	c := NewResourceLoaders()
	first := &stubLoader{extensions: []string{"png"}}
	second := &otherStubLoader{stubLoader{extensions: []string{"png"}}}
	c.Add(first)
	c.Add(second)

	if got := c.FindLoader(ParsePath("a.png")); got != ResourceLoader(first) {
		t.Fatal("the first registered match must win")
	}
}
