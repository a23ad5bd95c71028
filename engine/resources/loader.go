package resources

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ResourceSettings carries per-loader decode options. Concrete settings are
// pointer types with TOML tags so persisted metadata can overlay them.
type ResourceSettings interface {
	CloneSettings() ResourceSettings
}

// NoSettings is the settings type of loaders without decode options.
type NoSettings struct{}

func (s *NoSettings) CloneSettings() ResourceSettings {
	return &NoSettings{}
}

// LoadContext is handed to a loader's Load call: the I/O for the resolved
// source, the effective settings value, and the owning manager so a loader
// can request sub-resources recursively.
type LoadContext struct {
	IO       ResourceIO
	Settings ResourceSettings
	Manager  *ResourceManager
}

// ResourceLoader decodes raw bytes into one concrete resource data type. New
// resource kinds are added purely by implementing this contract and calling
// AddLoader on the manager.
type ResourceLoader interface {
	// Extensions lists the file extensions this loader handles, without the
	// leading dot. Matching is case-insensitive.
	Extensions() []string
	// DataTypeUUID identifies the concrete ResourceData type the loader
	// produces.
	DataTypeUUID() uuid.UUID
	// DefaultSettings returns the settings value used when a resource has no
	// persisted metadata.
	DefaultSettings() ResourceSettings
	Load(ctx context.Context, path ResourcePath, load *LoadContext) (ResourceData, error)
}

// ResourceLoaders owns the set of registered loaders. Lookups vastly
// outnumber registrations, hence the read-preferring lock.
type ResourceLoaders struct {
	mu      sync.RWMutex
	loaders []ResourceLoader
}

func NewResourceLoaders() *ResourceLoaders {
	return &ResourceLoaders{}
}

// Add registers a loader. If a loader of the same concrete type is already
// registered it is replaced and the previous one returned; re-registration
// is not an error.
func (c *ResourceLoaders) Add(loader ResourceLoader) ResourceLoader {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := reflect.TypeOf(loader)
	for i, existing := range c.loaders {
		if reflect.TypeOf(existing) == t {
			c.loaders[i] = loader
			return existing
		}
	}
	c.loaders = append(c.loaders, loader)
	return nil
}

// FindLoader resolves the loader for a path by its full extension, falling
// back to secondary extension segments ("config.toml" -> "toml"). The first
// registered loader declaring a matching extension wins; nil when none does.
func (c *ResourceLoaders) FindLoader(path ResourcePath) ResourceLoader {
	full := path.FullExtension()
	if full == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if l := c.findByExtension(full); l != nil {
		return l
	}
	for _, ext := range secondaryExtensions(full) {
		if l := c.findByExtension(ext); l != nil {
			return l
		}
	}
	return nil
}

func (c *ResourceLoaders) findByExtension(ext string) ResourceLoader {
	for _, loader := range c.loaders {
		for _, candidate := range loader.Extensions() {
			if strings.EqualFold(candidate, ext) {
				return loader
			}
		}
	}
	return nil
}

func (c *ResourceLoaders) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.loaders)
}
