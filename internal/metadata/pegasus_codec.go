package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/romcatalog/internal/model"
)

// PegasusCodec reads metadata.pegasus.txt files.
type PegasusCodec struct{}

func (PegasusCodec) Name() string { return "pegasus" }

func (PegasusCodec) Parse(path string) ([]model.Record, error) {
	doc, err := ParseMetadataFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return ToRecords(doc, filepath.Dir(path)), nil
}

// ToRecords converts a document into catalog records. Media references are
// resolved against baseDir. Every game file becomes one record; a game
// without files becomes a single record with no rom file. Ignored files of
// a collection become records flagged as ignored.
func ToRecords(doc *Document, baseDir string) []model.Record {
	var out []model.Record
	for _, coll := range doc.Collections() {
		for _, file := range coll.IgnoreFiles {
			sub, name := splitRomPath(file)
			if name == "" {
				continue
			}
			out = append(out, model.Record{RomFile: name, SubFolder: sub, Ignore: true})
		}
	}

	for _, game := range doc.Games() {
		tmpl := model.Record{
			Title:          strings.TrimSpace(game.Title),
			Description:    game.Description,
			Developer:      strings.Join(game.Developers, ", "),
			Genre:          strings.Join(game.Genres, ", "),
			CoverImagePath: model.ResolveMedia(baseDir, game.Assets[AssetCover]),
			LogoImagePath:  model.ResolveMedia(baseDir, game.Assets[AssetLogo]),
			VideoPath:      model.ResolveMedia(baseDir, game.Assets[AssetVideo]),
		}
		if tmpl.Description == "" {
			tmpl.Description = game.Summary
		}
		if tmpl.Developer == "" {
			tmpl.Developer = strings.Join(game.Publishers, ", ")
		}
		if len(game.Files) == 0 {
			out = append(out, tmpl)
			continue
		}
		for _, file := range game.Files {
			sub, name := splitRomPath(file)
			if name == "" {
				continue
			}
			rec := tmpl
			rec.RomFile = name
			rec.SubFolder = sub
			out = append(out, rec)
		}
	}
	return out
}

// FromRecords builds a document with one collection block followed by a
// game block per record. Media inside baseDir are written relative to it.
// Ignored records are listed as ignore-files of the collection.
func FromRecords(collection string, exts []string, records []model.Record, baseDir string) *Document {
	coll := &Block{Kind: KindCollection}
	coll.add("collection", collection)
	if len(exts) > 0 {
		trimmed := make([]string, 0, len(exts))
		for _, ext := range exts {
			trimmed = append(trimmed, strings.TrimPrefix(ext, "."))
		}
		coll.add("extensions", strings.Join(trimmed, ", "))
	}
	doc := &Document{Blocks: []*Block{coll}}

	var ignored []string
	for _, rec := range records {
		if strings.TrimSpace(rec.RomFile) == "" {
			continue
		}
		file := filepath.ToSlash(rec.RelPath())
		if rec.Ignore {
			ignored = append(ignored, file)
			continue
		}
		game := &Block{Kind: KindGame}
		game.add("game", rec.DisplayTitle())
		game.add("file", file)
		game.add("developer", rec.Developer)
		game.add("genre", rec.Genre)
		game.add("assets.boxfront", relativeMedia(baseDir, rec.CoverImagePath))
		game.add("assets.logo", relativeMedia(baseDir, rec.LogoImagePath))
		game.add("assets.video", relativeMedia(baseDir, rec.VideoPath))
		if desc := strings.TrimSpace(rec.Description); desc != "" {
			game.Entries = append(game.Entries, &Entry{Key: "description", Values: textValues(desc), Inline: true})
		}
		doc.Blocks = append(doc.Blocks, game)
	}
	if len(ignored) > 0 {
		coll.Entries = append(coll.Entries, &Entry{Key: "ignore-files", Values: ignored})
	}
	return doc
}

func (b *Block) add(key, value string) {
	if value = strings.TrimSpace(value); value == "" {
		return
	}
	b.Entries = append(b.Entries, &Entry{Key: key, Values: []string{value}, Inline: true})
}

// textValues splits text so that joinText restores it.
func textValues(text string) []string {
	var out []string
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if i > 0 && len(out) > 0 {
			out = append(out, "")
		}
		out = append(out, line)
	}
	return out
}

func relativeMedia(baseDir, ref string) string {
	if ref == "" || strings.Contains(ref, "://") || baseDir == "" {
		return ref
	}
	rel, err := filepath.Rel(baseDir, ref)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ref
	}
	return "./" + filepath.ToSlash(rel)
}
