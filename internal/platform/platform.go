package platform

import (
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExtensions is used for platforms without a configured allow-list.
var DefaultExtensions = []string{".zip", ".7z", ".rar", ".bin", ".cue", ".iso", ".chd", ".img"}

// ExtensionSet is a lower-cased set of file extensions including the dot.
type ExtensionSet map[string]struct{}

// NewExtensionSet normalises exts into a set. Entries may omit the dot.
func NewExtensionSet(exts ...string) ExtensionSet {
	set := make(ExtensionSet, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

// Allows reports whether the file name carries an allow-listed extension.
func (s ExtensionSet) Allows(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	_, ok := s[ext]
	return ok
}

// List returns the sorted extensions.
func (s ExtensionSet) List() []string {
	out := make([]string, 0, len(s))
	for ext := range s {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Definition describes one platform known to the registry.
type Definition struct {
	ID         string
	Aliases    []string
	Extensions []string
	Emulator   string
}

// Registry resolves platform names and their extension allow-lists.
type Registry struct {
	aliases    map[string]string
	extensions map[string]ExtensionSet
	emulators  map[string]string
	fallback   ExtensionSet
}

// NewRegistry builds a registry from platform definitions.
func NewRegistry(defs []Definition) *Registry {
	r := &Registry{
		aliases:    make(map[string]string),
		extensions: make(map[string]ExtensionSet),
		emulators:  make(map[string]string),
		fallback:   NewExtensionSet(DefaultExtensions...),
	}
	for _, def := range defs {
		id := canonical(def.ID)
		if id == "" {
			continue
		}
		r.aliases[id] = id
		for _, alias := range def.Aliases {
			if a := canonical(alias); a != "" {
				r.aliases[a] = id
			}
		}
		if len(def.Extensions) > 0 {
			r.extensions[id] = NewExtensionSet(def.Extensions...)
		}
		if def.Emulator != "" {
			r.emulators[id] = def.Emulator
		}
	}
	return r
}

func canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "-")
}

// NormalizePlatformID maps a display name or alias to the platform id.
// Unknown names are returned in canonical form.
func (r *Registry) NormalizePlatformID(name string) string {
	id := canonical(name)
	if mapped, ok := r.aliases[id]; ok {
		return mapped
	}
	return id
}

// ValidExtensions returns the allow-list for a platform.
func (r *Registry) ValidExtensions(id string) ExtensionSet {
	if set, ok := r.extensions[r.NormalizePlatformID(id)]; ok {
		return set
	}
	return r.fallback
}

// DefaultEmulator returns the configured emulator for a platform.
func (r *Registry) DefaultEmulator(id string) string {
	return r.emulators[r.NormalizePlatformID(id)]
}
