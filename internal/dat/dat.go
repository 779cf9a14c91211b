package dat

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xxxsen/romcatalog/internal/model"
)

// DataFile is the root node of a logiqx, FinalBurn Neo or MAME DAT file.
type DataFile struct {
	Header Header
	Sets   []Set
}

// Header carries top-level metadata for the DAT.
type Header struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Category    string `xml:"category"`
	Version     string `xml:"version"`
	Author      string `xml:"author"`
	Homepage    string `xml:"homepage"`
}

// Set is a single <game> or <machine> entry.
type Set struct {
	Name         string `xml:"name,attr"`
	SourceFile   string `xml:"sourcefile,attr,omitempty"`
	CloneOf      string `xml:"cloneof,attr,omitempty"`
	RomOf        string `xml:"romof,attr,omitempty"`
	IsBios       string `xml:"isbios,attr,omitempty"`
	IsDevice     string `xml:"isdevice,attr,omitempty"`
	Runnable     string `xml:"runnable,attr,omitempty"`
	Description  string `xml:"description"`
	Year         string `xml:"year"`
	Manufacturer string `xml:"manufacturer"`
	Roms         []Rom  `xml:"rom"`
}

// Rom describes a single ROM file entry.
type Rom struct {
	Name string `xml:"name,attr"`
	Size int64  `xml:"size,attr,omitempty"`
	CRC  string `xml:"crc,attr,omitempty"`
}

// Playable reports whether the set is a game rather than a bios or device.
func (s Set) Playable() bool {
	return !isYes(s.IsBios) && !isYes(s.IsDevice) && !strings.EqualFold(s.Runnable, "no")
}

func isYes(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "yes")
}

// ParseFile opens and parses a DAT file.
func ParseFile(path string) (*DataFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dat %s: %w", path, err)
	}
	defer f.Close()

	df, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse dat %s: %w", path, err)
	}
	return df, nil
}

// Parse streams DAT XML content from r. Both the logiqx <game> and the MAME
// <machine> element names are accepted.
func Parse(r io.Reader) (*DataFile, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false // DTD is referenced; relax strict parsing.

	df := &DataFile{}
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return df, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode dat: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "header":
			if err := decoder.DecodeElement(&df.Header, &start); err != nil {
				return nil, fmt.Errorf("decode dat header: %w", err)
			}
		case "game", "machine":
			var set Set
			if err := decoder.DecodeElement(&set, &start); err != nil {
				return nil, fmt.Errorf("decode dat set: %w", err)
			}
			df.Sets = append(df.Sets, set)
		}
	}
}

// FindSet returns the first set matching the given name.
func (df *DataFile) FindSet(name string) *Set {
	if df == nil {
		return nil
	}
	for i := range df.Sets {
		if df.Sets[i].Name == name {
			return &df.Sets[i]
		}
	}
	return nil
}

// Records turns every playable set into a catalog record keyed by its zip
// archive name. A clone without a manufacturer takes its parent's.
func (df *DataFile) Records() []model.Record {
	if df == nil {
		return nil
	}
	out := make([]model.Record, 0, len(df.Sets))
	for _, set := range df.Sets {
		name := strings.TrimSpace(set.Name)
		if name == "" || !set.Playable() {
			continue
		}
		rec := model.Record{
			RomFile:   name + ".zip",
			Title:     strings.TrimSpace(set.Description),
			Developer: strings.TrimSpace(set.Manufacturer),
		}
		if rec.Developer == "" && set.CloneOf != "" {
			if parent := df.FindSet(set.CloneOf); parent != nil {
				rec.Developer = strings.TrimSpace(parent.Manufacturer)
			}
		}
		out = append(out, rec)
	}
	return out
}

// Codec exposes DAT files as a foreign metadata source.
type Codec struct{}

func (Codec) Name() string { return "dat" }

func (Codec) Parse(path string) ([]model.Record, error) {
	df, err := ParseFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return df.Records(), nil
}
