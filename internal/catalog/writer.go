package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/model"
	"go.uber.org/zap"
)

const header = `# romcatalog game catalog
# One [section] per game. Any line after description= belongs to the
# description until the next section starts. A description line that
# would read as a section or comment is escaped with a leading backslash.
`

// Codec reads and writes native catalog files. Access to a single file is
// serialised; different files proceed independently.
type Codec struct {
	locks sync.Map
}

// NewCodec builds a catalog codec.
func NewCodec() *Codec {
	return &Codec{}
}

func (c *Codec) lock(path string) func() {
	key := filepath.Clean(path)
	v, _ := c.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ErrorKind classifies a failed catalog write.
type ErrorKind int

const (
	KindIO ErrorKind = iota
	KindPermission
)

func (k ErrorKind) String() string {
	if k == KindPermission {
		return "permission denied"
	}
	return "io error"
}

// WriteError reports a catalog write that did not replace the target file.
type WriteError struct {
	Path string
	Kind ErrorKind
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write catalog %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsPermission reports whether err is a catalog write refused by the OS.
func IsPermission(err error) bool {
	var we *WriteError
	return errors.As(err, &we) && we.Kind == KindPermission
}

func newWriteError(path string, err error) *WriteError {
	kind := KindIO
	if errors.Is(err, fs.ErrPermission) {
		kind = KindPermission
	}
	return &WriteError{Path: path, Kind: kind, Err: err}
}

// Write replaces the catalog at path with records. The previous file stays
// intact until the new content has been fully written.
func (c *Codec) Write(path string, records []model.Record) error {
	unlock := c.lock(path)
	defer unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return newWriteError(path, err)
	}
	data := Encode(records)
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return newWriteError(path, err)
	}
	// atomic.WriteFile creates the temp file with 0600.
	if err := os.Chmod(path, 0o644); err != nil {
		logutil.GetLogger(context.Background()).Warn("relax catalog permission failed",
			zap.String("path", path),
			zap.Error(err),
		)
	}
	return nil
}

// Encode renders records in the catalog grammar.
func Encode(records []model.Record) []byte {
	var buf bytes.Buffer
	buf.WriteString(header)
	for _, rec := range records {
		if strings.TrimSpace(rec.RomFile) == "" {
			continue
		}
		buf.WriteByte('\n')
		writeRecord(&buf, rec)
	}
	return buf.Bytes()
}

func writeRecord(buf *bytes.Buffer, rec model.Record) {
	section := singleLine(rec.Title)
	if section == "" || section == SentinelSection {
		section = model.BaseName(rec.RomFile)
	}
	buf.WriteString("[" + section + "]\n")

	put := func(key, value string) {
		value = singleLine(value)
		if value == "" {
			return
		}
		buf.WriteString(key)
		buf.WriteByte('=')
		buf.WriteString(value)
		buf.WriteByte('\n')
	}
	flag := func(key string, value bool) {
		if value {
			buf.WriteString(key + "=true\n")
		}
	}

	buf.WriteString(keyRomFile + "=" + singleLine(rec.RomFile) + "\n")
	put(keySubFolder, rec.SubFolder)
	put(keyTitle, rec.Title)
	put(keyDeveloper, rec.Developer)
	put(keyGenre, rec.Genre)
	put(keyScrapHint, rec.ScrapHint)
	put(keyEmulatorID, rec.EmulatorID)
	put(keyCoverImagePath, rec.CoverImagePath)
	put(keyLogoImagePath, rec.LogoImagePath)
	put(keyVideoPath, rec.VideoPath)
	flag(keyHasKorean, rec.HasKorean)
	flag(keyIsFavorite, rec.IsFavorite)
	flag(keyIgnore, rec.Ignore)

	if desc := NormalizeDescription(rec.Description); desc != "" {
		buf.WriteString(keyDescription + "=" + escapeDescription(desc) + "\n")
	}
}

func singleLine(value string) string {
	value = strings.ReplaceAll(value, "\r\n", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.TrimSpace(value)
}
