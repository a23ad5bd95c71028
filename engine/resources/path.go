package resources

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPathInvalidSource - the source section of a path contains the label delimiter, e.g. "bad#source://file.png".
	ErrPathInvalidSource = errors.New("resource source must not contain a '#' character")
	// ErrPathInvalidLabel - the label section of a path contains the source delimiter, e.g. "source://file.png#bad://label".
	ErrPathInvalidLabel = errors.New("resource label must not contain a '://' substring")
	// ErrPathMissingSource - a path has a '://' delimiter with nothing before it, e.g. "://file.png".
	ErrPathMissingSource = errors.New("resource source must be at least one character before '://'")
	// ErrPathMissingLabel - a path has a '#' delimiter with nothing after it, e.g. "file.png#".
	ErrPathMissingLabel = errors.New("resource label must be at least one character after '#'")
)

// ResourcePath identifies a resource in a virtual filesystem. It has three
// parts:
//   - an optional named source ("remote://..."); when absent the manager's
//     default source is used,
//   - a slash-separated path pointing at a source file,
//   - an optional label addressing a named sub-resource of the base asset
//     ("scene.gltf#Mesh0").
//
// The zero value is the empty path. A ResourcePath is immutable once built;
// derivation methods return new values. Two paths are equal iff source, path
// and label all match, so the type is usable as a map key.
type ResourcePath struct {
	source string
	path   string
	label  string
}

// TryParsePath parses "[source://]path[#label]".
func TryParsePath(s string) (ResourcePath, error) {
	source, path, label, err := parsePathParts(s)
	if err != nil {
		return ResourcePath{}, err
	}
	return ResourcePath{source: source, path: path, label: label}, nil
}

// ParsePath parses "[source://]path[#label]" and panics if the string is
// malformed. Use TryParsePath for untrusted input.
func ParsePath(s string) ResourcePath {
	p, err := TryParsePath(s)
	if err != nil {
		panic(fmt.Sprintf("resources: cannot parse resource path %q: %v", s, err))
	}
	return p
}

// PathFromString builds a path with the default source and no label, without
// interpreting '#' or '://'.
func PathFromString(path string) ResourcePath {
	return ResourcePath{path: path}
}

// parsePathParts splits a path string into source, path and label sections.
// The source is everything before the first "://", the label everything after
// the last '#'.
func parsePathParts(s string) (source, path, label string, err error) {
	rest := s
	if i := strings.Index(s, "://"); i >= 0 {
		src := s[:i]
		if strings.ContainsRune(src, '#') {
			return "", "", "", ErrPathInvalidSource
		}
		if src == "" {
			return "", "", "", ErrPathMissingSource
		}
		source = src
		rest = s[i+3:]
	}
	if j := strings.LastIndex(rest, "#"); j >= 0 {
		lbl := rest[j+1:]
		if lbl == "" {
			return "", "", "", ErrPathMissingLabel
		}
		if strings.Contains(lbl, "://") {
			return "", "", "", ErrPathInvalidLabel
		}
		label = lbl
		rest = rest[:j]
	}
	path = rest
	return source, path, label, nil
}

// Source returns the named source, or "" for the default source.
func (p ResourcePath) Source() string { return p.source }

// Path returns the virtual filesystem path section.
func (p ResourcePath) Path() string { return p.path }

// Label returns the sub-resource label, or "" when none is set.
func (p ResourcePath) Label() string { return p.label }

func (p ResourcePath) HasLabel() bool { return p.label != "" }

func (p ResourcePath) IsEmpty() bool { return p == ResourcePath{} }

// WithLabel returns this path with the given label, replacing any previous one.
func (p ResourcePath) WithLabel(label string) ResourcePath {
	p.label = label
	return p
}

// WithoutLabel returns this path with the label removed.
func (p ResourcePath) WithoutLabel() ResourcePath {
	p.label = ""
	return p
}

// WithSource returns this path with the given source, replacing any previous one.
func (p ResourcePath) WithSource(source string) ResourcePath {
	p.source = source
	return p
}

// Parent returns the path of the containing folder, without a label. The
// second return is false when there is no parent folder.
func (p ResourcePath) Parent() (ResourcePath, bool) {
	i := strings.LastIndex(p.path, "/")
	if i < 0 {
		return ResourcePath{}, false
	}
	return ResourcePath{source: p.source, path: p.path[:i]}, true
}

// Resolve resolves a relative path against this base path.
//
//	ParsePath("a/b").Resolve("c")      == ParsePath("a/b/c")
//	ParsePath("a/b").Resolve("./c")    == ParsePath("a/b/c")
//	ParsePath("a/b").Resolve("../c")   == ParsePath("a/c")
//	ParsePath("a/b").Resolve("/c")     == ParsePath("c")
//	ParsePath("a/b.png").Resolve("#c") == ParsePath("a/b.png#c")
//
// An argument starting with '#' replaces the label only. An argument starting
// with '/' is a full path relative to the source root. An argument carrying
// its own source ("remote://x") replaces the whole base. Anything else is
// concatenated and dot-segments are collapsed per RFC 1808.
func (p ResourcePath) Resolve(rel string) (ResourcePath, error) {
	return p.resolve(rel, false)
}

// ResolveEmbed behaves like Resolve except that the file portion of the base
// path is dropped before concatenation, per RFC 1808 "Relative URIs". Paths
// embedded inside an asset file are relative to the directory containing the
// asset, not to the asset itself.
//
//	ParsePath("a/b").ResolveEmbed("c")    == ParsePath("a/c")
//	ParsePath("a/b").ResolveEmbed("../c") == ParsePath("c")
func (p ResourcePath) ResolveEmbed(rel string) (ResourcePath, error) {
	return p.resolve(rel, true)
}

func (p ResourcePath) resolve(rel string, replaceFile bool) (ResourcePath, error) {
	if lbl, ok := strings.CutPrefix(rel, "#"); ok {
		if lbl == "" {
			return ResourcePath{}, ErrPathMissingLabel
		}
		return p.WithLabel(lbl), nil
	}

	source, rpath, label, err := parsePathParts(rel)
	if err != nil {
		return ResourcePath{}, err
	}

	base := p.path
	if replaceFile && !strings.HasSuffix(base, "/") {
		if i := strings.LastIndex(base, "/"); i >= 0 {
			base = base[:i]
		} else {
			// No error if the base is emptied out (per RFC 1808).
			base = ""
		}
	}

	isAbsolute := false
	if trimmed, ok := strings.CutPrefix(rpath, "/"); ok {
		isAbsolute = true
		rpath = trimmed
	}

	var joined string
	if !isAbsolute && source == "" {
		joined = joinPath(base, rpath)
	} else {
		joined = rpath
	}

	out := ResourcePath{
		source: p.source,
		path:   normalizePath(joined),
		label:  label,
	}
	if source != "" {
		out.source = source
	}
	return out, nil
}

func joinPath(base, rel string) string {
	if base == "" {
		return rel
	}
	if rel == "" {
		return base
	}
	return base + "/" + rel
}

// normalizePath collapses '.' and '..' dot-segments where possible, as per
// RFC 1808.
func normalizePath(path string) string {
	var result []string
	for _, elt := range strings.Split(path, "/") {
		switch elt {
		case "", ".":
			// Skip
		case "..":
			if len(result) > 0 && result[len(result)-1] != ".." {
				result = result[:len(result)-1]
			} else {
				// Preserve ".." if there is nothing left to pop (per RFC 1808).
				result = append(result, elt)
			}
		default:
			result = append(result, elt)
		}
	}
	return strings.Join(result, "/")
}

// FullExtension returns the lowercased full extension of the file name,
// including every '.' segment: "my_asset.config.toml" yields "config.toml".
// Anything after a '?' is stripped to cope with query parameters in URI-style
// paths. Returns "" when the file name has no extension.
func (p ResourcePath) FullExtension() string {
	name := p.path
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	i := strings.Index(name, ".")
	if i < 0 {
		return ""
	}
	ext := strings.ToLower(name[i+1:])
	if q := strings.Index(ext, "?"); q >= 0 {
		ext = ext[:q]
	}
	return ext
}

// secondaryExtensions yields the shorter suffixes of a full extension:
// "config.toml" yields ["toml"].
func secondaryExtensions(fullExtension string) []string {
	var out []string
	for i, c := range fullExtension {
		if c == '.' {
			out = append(out, fullExtension[i+1:])
		}
	}
	return out
}

func (p ResourcePath) String() string {
	var sb strings.Builder
	if p.source != "" {
		sb.WriteString(p.source)
		sb.WriteString("://")
	}
	sb.WriteString(p.path)
	if p.label != "" {
		sb.WriteString("#")
		sb.WriteString(p.label)
	}
	return sb.String()
}
