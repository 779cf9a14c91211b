package model

import (
	"path/filepath"
	"strings"
)

// Record represents a single playable file in a platform catalog.
type Record struct {
	RomFile    string `json:"rom_file"`
	SubFolder  string `json:"sub_folder,omitempty"`
	PlatformID string `json:"platform_id,omitempty"`

	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Developer   string `json:"developer,omitempty"`
	Genre       string `json:"genre,omitempty"`
	ScrapHint   string `json:"scrap_hint,omitempty"`

	HasKorean  bool `json:"has_korean,omitempty"`
	IsFavorite bool `json:"is_favorite,omitempty"`
	Ignore     bool `json:"ignore,omitempty"`

	CoverImagePath string `json:"cover_image_path,omitempty"`
	LogoImagePath  string `json:"logo_image_path,omitempty"`
	VideoPath      string `json:"video_path,omitempty"`

	EmulatorID string `json:"emulator_id,omitempty"`

	// Section is the header name the record was loaded from. It is only a
	// display fallback and is never written back on its own.
	Section string `json:"-"`
}

// CompositeKey identifies a record inside one catalog, ignoring case.
type CompositeKey string

// KeyOf builds the composite key for a subfolder/file pair.
func KeyOf(subFolder, romFile string) CompositeKey {
	return CompositeKey(strings.ToLower(subFolder) + "\x00" + strings.ToLower(romFile))
}

// Key returns the composite key of the record.
func (r Record) Key() CompositeKey {
	return KeyOf(r.SubFolder, r.RomFile)
}

// RelPath returns the rom path relative to the catalog base folder.
func (r Record) RelPath() string {
	if r.SubFolder == "" {
		return r.RomFile
	}
	return filepath.Join(r.SubFolder, r.RomFile)
}

// DisplayTitle returns the best available title for presentation.
func (r Record) DisplayTitle() string {
	if strings.TrimSpace(r.Title) != "" {
		return r.Title
	}
	if strings.TrimSpace(r.Section) != "" {
		return r.Section
	}
	return BaseName(r.RomFile)
}

// BaseName strips the extension from a file name.
func BaseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ResolveMedia turns a stored media reference into a usable path.
func ResolveMedia(basePath, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if strings.Contains(ref, "://") || filepath.IsAbs(ref) {
		return ref
	}
	ref = strings.TrimPrefix(ref, "./")
	ref = strings.TrimPrefix(ref, ".\\")
	return filepath.Join(basePath, filepath.FromSlash(ref))
}

// FillEmpty copies every field of src into r that is empty on r. Identity
// fields are left alone. It reports whether anything was filled.
func (r *Record) FillEmpty(src Record) bool {
	changed := false
	fillString := func(dst *string, val string) {
		if *dst == "" && val != "" {
			*dst = val
			changed = true
		}
	}
	fillBool := func(dst *bool, val bool) {
		if !*dst && val {
			*dst = true
			changed = true
		}
	}

	fillString(&r.Title, src.Title)
	fillString(&r.Description, src.Description)
	fillString(&r.Developer, src.Developer)
	fillString(&r.Genre, src.Genre)
	fillString(&r.ScrapHint, src.ScrapHint)
	fillString(&r.CoverImagePath, src.CoverImagePath)
	fillString(&r.LogoImagePath, src.LogoImagePath)
	fillString(&r.VideoPath, src.VideoPath)
	fillString(&r.EmulatorID, src.EmulatorID)
	fillBool(&r.HasKorean, src.HasKorean)
	fillBool(&r.IsFavorite, src.IsFavorite)
	fillBool(&r.Ignore, src.Ignore)
	return changed
}

// KeySet indexes records by composite key.
func KeySet(records []Record) map[CompositeKey]struct{} {
	set := make(map[CompositeKey]struct{}, len(records))
	for _, rec := range records {
		set[rec.Key()] = struct{}{}
	}
	return set
}

// Dedupe drops records without a rom file and later duplicates of a key.
func Dedupe(records []Record) []Record {
	seen := make(map[CompositeKey]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.RomFile) == "" {
			continue
		}
		key := rec.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
