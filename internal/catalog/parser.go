package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/romcatalog/internal/model"
)

const (
	// FileName is the native catalog file kept in every platform folder.
	FileName = "catalog.ini"

	// SentinelSection never describes a game. It also drops the record
	// that was open when it appears, so it must be the first section.
	SentinelSection = "DefaultSettings"

	maxLineSize = 8 * 1024 * 1024
)

// ErrCorrupt is returned when a catalog file cannot be read as text.
var ErrCorrupt = errors.New("catalog file is corrupt")

// Parse loads the catalog at path. Records whose rom file no longer exists
// under basePath are dropped. A missing catalog yields no records.
func (c *Codec) Parse(path, basePath string) ([]model.Record, error) {
	unlock := c.lock(path)
	defer unlock()

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()

	records, err := decode(f, func(rec model.Record) bool {
		return fileExists(filepath.Join(basePath, rec.RelPath()))
	})
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return records, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type parser struct {
	keep   func(model.Record) bool
	out    []model.Record
	seen   map[model.CompositeKey]struct{}
	cur    *model.Record
	active field
	desc   descriptionBuilder
}

func decode(r io.Reader, keep func(model.Record) bool) ([]model.Record, error) {
	p := &parser{
		keep: keep,
		seen: make(map[model.CompositeKey]struct{}),
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSuffix(scanner.Text(), "\r")
		if lineNo == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		if !utf8.ValidString(raw) || strings.ContainsRune(raw, 0) {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrCorrupt)
		}
		p.line(raw)
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, ErrCorrupt)
		}
		return nil, err
	}
	p.flush()
	return p.out, nil
}

func (p *parser) line(raw string) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return
	}
	if strings.HasPrefix(trimmed, "#") {
		return
	}
	if name, ok := sectionName(trimmed); ok {
		p.section(name)
		return
	}
	if p.cur == nil {
		return
	}
	if p.active == fieldDescription {
		p.desc.add(strings.TrimPrefix(trimmed, descEscape))
		return
	}

	key, value, ok := splitKeyValue(trimmed)
	if !ok {
		// bare text only continues a description
		return
	}
	f, known := lookupField(key)
	if !known {
		p.active = fieldNone
		return
	}
	p.active = f
	if f == fieldDescription {
		p.desc.reset()
		p.desc.add(value)
		return
	}
	assign(p.cur, f, value)
}

func (p *parser) section(name string) {
	if name == SentinelSection {
		p.cur = nil
		p.active = fieldNone
		p.desc.reset()
		return
	}
	p.flush()
	p.cur = &model.Record{Section: name}
}

func (p *parser) flush() {
	if p.cur == nil {
		return
	}
	rec := *p.cur
	if p.desc.started {
		rec.Description = p.desc.String()
	}
	p.cur = nil
	p.active = fieldNone
	p.desc.reset()

	if strings.TrimSpace(rec.RomFile) == "" {
		return
	}
	if p.keep != nil && !p.keep(rec) {
		return
	}
	key := rec.Key()
	if _, dup := p.seen[key]; dup {
		return
	}
	p.seen[key] = struct{}{}
	p.out = append(p.out, rec)
}

func sectionName(line string) (string, bool) {
	if len(line) < 2 || line[0] != '[' || line[len(line)-1] != ']' {
		return "", false
	}
	return strings.TrimSpace(line[1 : len(line)-1]), true
}

// splitKeyValue splits on the first '='. The key must start with an ASCII
// letter or underscore, anything else is plain text.
func splitKeyValue(line string) (string, string, bool) {
	idx := strings.IndexByte(line, '=')
	if idx <= 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:idx])
	if key == "" || !isKeyStart(key[0]) {
		return "", "", false
	}
	return key, strings.TrimSpace(line[idx+1:]), true
}

func isKeyStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// descriptionBuilder trims every line and drops blank ones, so runs of
// blank lines collapse into the single line break between text lines.
type descriptionBuilder struct {
	started bool
	lines   []string
}

func (d *descriptionBuilder) reset() {
	*d = descriptionBuilder{}
}

func (d *descriptionBuilder) add(line string) {
	d.started = true
	if line = strings.TrimSpace(line); line != "" {
		d.lines = append(d.lines, line)
	}
}

func (d *descriptionBuilder) String() string {
	return strings.Join(d.lines, "\n")
}

// NormalizeDescription applies the description whitespace rules to text.
func NormalizeDescription(text string) string {
	var d descriptionBuilder
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		d.add(line)
	}
	return d.String()
}

const descEscape = "\\"

// escapeDescription guards continuation lines that start with a section
// bracket, a comment mark or the escape itself. The first line follows
// description= and needs no guard.
func escapeDescription(desc string) string {
	lines := strings.Split(desc, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "[") || strings.HasPrefix(lines[i], "#") || strings.HasPrefix(lines[i], descEscape) {
			lines[i] = descEscape + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}
