package metadata

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/natefinch/atomic"
)

// PegasusFileName is the metadata file written by the Pegasus frontend.
const PegasusFileName = "metadata.pegasus.txt"

const metadataIndent = "  "

// BlockKind identifies the type of metadata block.
type BlockKind string

const (
	KindCollection BlockKind = "collection"
	KindGame       BlockKind = "game"
)

// Document represents a metadata.pegasus.txt file. The document keeps the
// original ordering of collection and game blocks so that it can be written
// back without losing information.
type Document struct {
	Blocks []*Block
}

// Block represents a collection or game block with its raw entries.
type Block struct {
	Kind    BlockKind
	Entries []*Entry
}

// Entry stores an individual name/value entry inside a block. An empty
// value stands for an explicit line break written as ".".
type Entry struct {
	Key    string
	Values []string
	Inline bool
}

// Collection contains the parsed friendly view of a collection block.
type Collection struct {
	Name        string
	Extensions  []string
	IgnoreFiles []string
}

// Game contains a parsed friendly view of a game block.
type Game struct {
	Title       string
	Files       []string
	Developers  []string
	Publishers  []string
	Genres      []string
	Summary     string
	Description string
	Assets      map[AssetKind]string
}

// ParseMetadataFile reads and parses a metadata.pegasus.txt file.
func ParseMetadataFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata %s: %w", path, err)
	}
	defer f.Close()

	doc, err := ParseDocument(f)
	if err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return doc, nil
}

// ParseDocument reads Pegasus metadata from r. Lines that do not fit the
// grammar are skipped; only read failures are reported.
func ParseDocument(r io.Reader) (*Document, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 8*1024*1024)

	doc := &Document{}
	var block *Block
	var lastEntry *Entry
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSuffix(scanner.Text(), "\r")
		if lineNo == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}

		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			lastEntry = nil
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			lastEntry = nil
			continue
		}

		if unicode.IsSpace(firstRune(raw)) {
			if lastEntry != nil {
				lastEntry.Values = append(lastEntry.Values, continuationValue(trimmed))
			}
			continue
		}

		colon := strings.IndexRune(raw, ':')
		if colon == -1 {
			// text without a key keeps extending the previous entry
			if lastEntry != nil {
				lastEntry.Values = append(lastEntry.Values, continuationValue(trimmed))
			}
			continue
		}

		key := normalizeKey(strings.TrimSpace(raw[:colon]))
		if key == "" {
			lastEntry = nil
			continue
		}
		value := strings.TrimSpace(raw[colon+1:])

		switch key {
		case string(KindCollection):
			block = &Block{Kind: KindCollection}
			doc.Blocks = append(doc.Blocks, block)
		case string(KindGame):
			block = &Block{Kind: KindGame}
			doc.Blocks = append(doc.Blocks, block)
		default:
			if block == nil {
				lastEntry = nil
				continue
			}
		}

		entry := &Entry{Key: key, Inline: value != ""}
		if value != "" {
			entry.Values = append(entry.Values, value)
		}
		block.Entries = append(block.Entries, entry)
		lastEntry = entry
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

func continuationValue(line string) string {
	if line == "." {
		return ""
	}
	return line
}

// WriteDocument serialises a Document back to disk following the Pegasus format.
func WriteDocument(path string, doc *Document) error {
	if doc == nil {
		return errors.New("metadata document is nil")
	}
	if strings.TrimSpace(path) == "" {
		return errors.New("metadata output path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure metadata dir %s: %w", path, err)
	}

	var buf bytes.Buffer
	for i, blk := range doc.Blocks {
		if blk == nil {
			continue
		}
		if i > 0 {
			buf.WriteByte('\n')
		}
		for _, entry := range blk.Entries {
			if entry == nil {
				continue
			}
			buf.WriteString(entry.Key)
			buf.WriteString(":")
			start := 0
			if entry.Inline && len(entry.Values) > 0 && entry.Values[0] != "" {
				buf.WriteByte(' ')
				buf.WriteString(entry.Values[0])
				start = 1
			}
			buf.WriteByte('\n')
			for idx := start; idx < len(entry.Values); idx++ {
				buf.WriteString(metadataIndent)
				if entry.Values[idx] == "" {
					buf.WriteString(".")
				} else {
					buf.WriteString(entry.Values[idx])
				}
				buf.WriteByte('\n')
			}
		}
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write metadata %s: %w", path, err)
	}
	return nil
}

// Collections returns the typed view of all collection blocks.
func (d *Document) Collections() []Collection {
	if d == nil {
		return nil
	}
	var result []Collection
	for _, blk := range d.Blocks {
		if blk == nil || blk.Kind != KindCollection {
			continue
		}
		result = append(result, parseCollectionBlock(blk))
	}
	return result
}

// Games returns the typed view of all game blocks.
func (d *Document) Games() []Game {
	if d == nil {
		return nil
	}
	var result []Game
	for _, blk := range d.Blocks {
		if blk == nil || blk.Kind != KindGame {
			continue
		}
		result = append(result, parseGameBlock(blk))
	}
	return result
}

func parseCollectionBlock(blk *Block) Collection {
	var coll Collection
	for _, entry := range blk.Entries {
		if entry == nil {
			continue
		}
		switch entry.Key {
		case "collection":
			coll.Name = joinEntryValues(entry)
		case "extensions", "extension":
			coll.Extensions = append(coll.Extensions, parseCSV(entry.Values)...)
		case "ignore-file", "ignore-files":
			coll.IgnoreFiles = append(coll.IgnoreFiles, cloneValues(entry.Values)...)
		}
	}
	return coll
}

func parseGameBlock(blk *Block) Game {
	game := Game{}
	for _, entry := range blk.Entries {
		if entry == nil {
			continue
		}
		switch entry.Key {
		case "game":
			game.Title = joinEntryValues(entry)
		case "file", "files":
			game.Files = append(game.Files, cloneValues(entry.Values)...)
		case "developer", "developers":
			game.Developers = append(game.Developers, parseCSV(entry.Values)...)
		case "publisher", "publishers":
			game.Publishers = append(game.Publishers, parseCSV(entry.Values)...)
		case "genre", "genres":
			game.Genres = append(game.Genres, parseCSV(entry.Values)...)
		case "summary":
			game.Summary = joinText(entry.Values)
		case "description":
			game.Description = joinText(entry.Values)
		default:
			kind, ok := LookupAsset(entry.Key)
			if !ok {
				continue
			}
			values := cloneValues(entry.Values)
			if len(values) == 0 {
				continue
			}
			if game.Assets == nil {
				game.Assets = make(map[AssetKind]string)
			}
			if _, exists := game.Assets[kind]; !exists {
				game.Assets[kind] = values[0]
			}
		}
	}
	return game
}

func joinEntryValues(entry *Entry) string {
	if entry == nil {
		return ""
	}
	return strings.Join(cloneValues(entry.Values), "\n")
}

// joinText folds wrapped lines into paragraphs. Lines are joined with a
// space and an explicit "." line starts a new line.
func joinText(values []string) string {
	var b strings.Builder
	pendingSpace := false
	for _, value := range values {
		if value == "" {
			b.WriteByte('\n')
			pendingSpace = false
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
		}
		b.WriteString(value)
		pendingSpace = true
	}
	return strings.TrimSpace(b.String())
}

func parseCSV(values []string) []string {
	var out []string
	for _, value := range values {
		parts := strings.Split(value, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

func cloneValues(values []string) []string {
	var out []string
	for _, value := range values {
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func normalizeKey(in string) string {
	key := strings.ToLower(strings.TrimSpace(in))
	if strings.HasPrefix(key, "asset.") {
		key = "assets." + strings.TrimPrefix(key, "asset.")
	}
	return key
}
