package platform

import (
	"path/filepath"
	"strings"
)

// PathResolver translates between configured display paths and real paths.
type PathResolver interface {
	DisplayPathToRealPath(path string) string
	RealPathToDisplayPath(path string) string
}

// IdentityResolver returns paths unchanged.
type IdentityResolver struct{}

func (IdentityResolver) DisplayPathToRealPath(path string) string { return path }
func (IdentityResolver) RealPathToDisplayPath(path string) string { return path }

// PrefixMapping swaps a display prefix for a real prefix.
type PrefixMapping struct {
	Display string
	Real    string
}

// PrefixResolver rewrites paths whose prefix matches a mapping. The longest
// matching prefix wins.
type PrefixResolver struct {
	mappings []PrefixMapping
}

// NewPrefixResolver builds a resolver from mappings.
func NewPrefixResolver(mappings []PrefixMapping) *PrefixResolver {
	cleaned := make([]PrefixMapping, 0, len(mappings))
	for _, m := range mappings {
		if strings.TrimSpace(m.Display) == "" || strings.TrimSpace(m.Real) == "" {
			continue
		}
		cleaned = append(cleaned, PrefixMapping{
			Display: filepath.Clean(m.Display),
			Real:    filepath.Clean(m.Real),
		})
	}
	return &PrefixResolver{mappings: cleaned}
}

func (r *PrefixResolver) DisplayPathToRealPath(path string) string {
	return r.swap(path, func(m PrefixMapping) (string, string) { return m.Display, m.Real })
}

func (r *PrefixResolver) RealPathToDisplayPath(path string) string {
	return r.swap(path, func(m PrefixMapping) (string, string) { return m.Real, m.Display })
}

func (r *PrefixResolver) swap(path string, pick func(PrefixMapping) (string, string)) string {
	clean := filepath.Clean(path)
	best := -1
	var from, to string
	for _, m := range r.mappings {
		f, t := pick(m)
		if !hasPathPrefix(clean, f) || len(f) <= best {
			continue
		}
		best = len(f)
		from, to = f, t
	}
	if best < 0 {
		return path
	}
	return filepath.Join(to, strings.TrimPrefix(clean, from))
}

func hasPathPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return strings.HasSuffix(prefix, string(filepath.Separator)) || path[len(prefix)] == filepath.Separator
}

// Folder is one configured rom folder and the platform it belongs to.
type Folder struct {
	Key         string
	DisplayPath string
	RealPath    string
	PlatformID  string
}

// FolderConfig is the raw folder entry from configuration.
type FolderConfig struct {
	Key      string
	Path     string
	Platform string
}

// FolderMap is the folder to platform mapping table. Several folders may
// map to one platform.
type FolderMap struct {
	folders []Folder
	byKey   map[string]int
}

// NewFolderMap resolves folder configs through the registry and resolver.
// The key defaults to the display path.
func NewFolderMap(cfgs []FolderConfig, registry *Registry, resolver PathResolver) *FolderMap {
	if resolver == nil {
		resolver = IdentityResolver{}
	}
	fm := &FolderMap{byKey: make(map[string]int, len(cfgs))}
	for _, cfg := range cfgs {
		display := strings.TrimSpace(cfg.Path)
		if display == "" {
			continue
		}
		key := strings.TrimSpace(cfg.Key)
		if key == "" {
			key = display
		}
		if _, dup := fm.byKey[key]; dup {
			continue
		}
		fm.byKey[key] = len(fm.folders)
		fm.folders = append(fm.folders, Folder{
			Key:         key,
			DisplayPath: display,
			RealPath:    filepath.Clean(resolver.DisplayPathToRealPath(display)),
			PlatformID:  registry.NormalizePlatformID(cfg.Platform),
		})
	}
	return fm
}

// All returns every configured folder in configuration order.
func (m *FolderMap) All() []Folder {
	out := make([]Folder, len(m.folders))
	copy(out, m.folders)
	return out
}

// Lookup returns the folder registered under key.
func (m *FolderMap) Lookup(key string) (Folder, bool) {
	idx, ok := m.byKey[key]
	if !ok {
		return Folder{}, false
	}
	return m.folders[idx], true
}

// Folders returns every folder mapped to the platform id.
func (m *FolderMap) Folders(platformID string) []Folder {
	var out []Folder
	for _, f := range m.folders {
		if f.PlatformID == platformID {
			out = append(out, f)
		}
	}
	return out
}

// Platforms returns the distinct platform ids in configuration order.
func (m *FolderMap) Platforms() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range m.folders {
		if _, ok := seen[f.PlatformID]; ok {
			continue
		}
		seen[f.PlatformID] = struct{}{}
		out = append(out, f.PlatformID)
	}
	return out
}
