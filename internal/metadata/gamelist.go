package metadata

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/romcatalog/internal/model"
)

// GamelistFileName is the EmulationStation game list.
const GamelistFileName = "gamelist.xml"

const mediaRootDir = "downloaded_media"

var (
	imageExts = []string{".png", ".jpg", ".jpeg", ".webp"}
	videoExts = []string{".mp4", ".mkv", ".webm", ".avi"}
)

// GamelistEntry is the subset of a <game> element the catalog reads.
type GamelistEntry struct {
	Path        string   `xml:"path"`
	Name        string   `xml:"name"`
	Description string   `xml:"desc"`
	Image       string   `xml:"image"`
	Thumbnail   string   `xml:"thumbnail"`
	Marquee     string   `xml:"marquee"`
	Video       string   `xml:"video"`
	Developer   string   `xml:"developer"`
	Genres      []string `xml:"genre"`
}

// GamelistCodec reads gamelist.xml files.
type GamelistCodec struct{}

func (GamelistCodec) Name() string { return "gamelist" }

func (GamelistCodec) Parse(path string) ([]model.Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open gamelist %s: %w", path, err)
	}
	defer f.Close()

	dir := filepath.Dir(path)
	media := newMediaProbe(filepath.Join(dir, "..", "..", mediaRootDir, filepath.Base(dir)))
	var out []model.Record
	err = StreamGamelist(f, func(entry GamelistEntry) {
		if rec, ok := entry.toRecord(dir, media); ok {
			out = append(out, rec)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("decode gamelist %s: %w", path, err)
	}
	return out, nil
}

// StreamGamelist calls fn for every <game> element of r in document order.
// Other elements are skipped without being decoded.
func StreamGamelist(r io.Reader, fn func(GamelistEntry)) error {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false // scraper output carries stray html entities
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(start.Name.Local, "game") {
			continue
		}
		var entry GamelistEntry
		if err := decoder.DecodeElement(&entry, &start); err != nil {
			return err
		}
		fn(entry)
	}
}

func (e GamelistEntry) toRecord(dir string, media *mediaProbe) (model.Record, bool) {
	sub, name := splitRomPath(e.Path)
	if name == "" {
		return model.Record{}, false
	}
	var genres []string
	for _, g := range e.Genres {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	rec := model.Record{
		RomFile:     name,
		SubFolder:   sub,
		Title:       strings.TrimSpace(e.Name),
		Description: strings.TrimSpace(e.Description),
		Developer:   strings.TrimSpace(e.Developer),
		Genre:       strings.Join(genres, ", "),
	}

	cover := firstNonEmpty(e.Image, e.Thumbnail)
	base := model.BaseName(name)
	rec.CoverImagePath = explicitOr(dir, cover, func() string { return media.find("covers", base, imageExts) })
	rec.LogoImagePath = explicitOr(dir, e.Marquee, func() string { return media.find("marquees", base, imageExts) })
	rec.VideoPath = explicitOr(dir, e.Video, func() string { return media.find("videos", base, videoExts) })
	return rec, true
}

func explicitOr(dir, ref string, fallback func() string) string {
	if ref = strings.TrimSpace(ref); ref != "" {
		return model.ResolveMedia(dir, ref)
	}
	return fallback()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// mediaProbe looks up conventional media files below one media root.
type mediaProbe struct {
	root string
}

func newMediaProbe(root string) *mediaProbe {
	return &mediaProbe{root: filepath.Clean(root)}
}

func (m *mediaProbe) find(kind, base string, exts []string) string {
	for _, ext := range exts {
		p := filepath.Join(m.root, kind, base+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}
