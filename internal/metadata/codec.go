package metadata

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/xxxsen/romcatalog/internal/model"
)

// ForeignCodec turns a catalog exported by another launcher into records.
// A missing file yields no records and no error.
type ForeignCodec interface {
	Name() string
	Parse(path string) ([]model.Record, error)
}

// Sources lists the foreign metadata files in load fallback order.
var Sources = []struct {
	FileName string
	Codec    ForeignCodec
}{
	{PegasusFileName, PegasusCodec{}},
	{GamelistFileName, GamelistCodec{}},
}

// Detect returns the first foreign metadata file present in dir.
func Detect(dir string) (ForeignCodec, string, bool) {
	for _, src := range Sources {
		p := filepath.Join(dir, src.FileName)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return src.Codec, p, true
		}
	}
	return nil, "", false
}

// CodecFor picks a codec from the file name of a foreign metadata file.
func CodecFor(file string) (ForeignCodec, bool) {
	name := strings.ToLower(filepath.Base(file))
	for _, src := range Sources {
		if name == src.FileName {
			return src.Codec, true
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml":
		return GamelistCodec{}, true
	case ".txt":
		return PegasusCodec{}, true
	}
	return nil, false
}

// splitRomPath turns a path relative to the metadata file into the
// subfolder and file name of a record. Paths nested deeper than one
// directory are not scanned and yield an empty name.
func splitRomPath(p string) (string, string) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "./")
	p = path.Clean(p)
	if p == "." || p == "/" || p == "" {
		return "", ""
	}
	name := path.Base(p)
	dir := path.Dir(p)
	if dir == "." || dir == "/" {
		return "", name
	}
	dir = strings.TrimPrefix(dir, "/")
	if strings.Contains(dir, "/") {
		return "", ""
	}
	return dir, name
}
