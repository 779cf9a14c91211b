package reconcile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/catalog"
	"github.com/xxxsen/romcatalog/internal/model"
	"github.com/xxxsen/romcatalog/internal/scanner"
	"go.uber.org/zap"
)

// Source parses a foreign metadata file into records.
type Source interface {
	Parse(path string) ([]model.Record, error)
}

// CatalogWriter persists the full catalog of one folder.
type CatalogWriter interface {
	Write(path string, records []model.Record) error
}

// Folder is one configured folder of the platform being reconciled.
type Folder struct {
	Key         string
	Path        string
	CatalogPath string
	PlatformID  string
	Extensions  scanner.Allower
	Records     []model.Record
}

func (f Folder) catalogPath() string {
	if f.CatalogPath != "" {
		return f.CatalogPath
	}
	return filepath.Join(f.Path, catalog.FileName)
}

// Input describes one reconciliation run.
type Input struct {
	Folders     []Folder
	ForeignPath string
	Source      Source
}

// Result reports what a run changed, grouped by folder key.
type Result struct {
	// Changed holds the records that were filled in or inserted.
	Changed map[string][]model.Record
	// Catalogs holds the full rewritten catalog of every changed folder.
	Catalogs map[string][]model.Record
	Matched  int
}

// ChangedCount returns the number of changed records over all folders.
func (r *Result) ChangedCount() int {
	n := 0
	for _, recs := range r.Changed {
		n += len(recs)
	}
	return n
}

// Engine merges foreign metadata into native catalogs.
type Engine struct {
	writer CatalogWriter
}

// NewEngine builds an engine that persists through writer.
func NewEngine(writer CatalogWriter) *Engine {
	return &Engine{writer: writer}
}

type owner struct {
	folder    int
	subFolder string
	fileName  string
}

type location struct {
	folder int
	index  int
}

// Sync pulls the foreign file into the folders' catalogs. Existing records
// only get their empty fields filled; files without a record get a new one
// in the folder that holds them. Only foreign records naming a file that is
// present on disk are considered. Each changed folder is rewritten once.
func (e *Engine) Sync(ctx context.Context, in Input) (*Result, error) {
	logger := logutil.GetLogger(ctx)
	if in.Source == nil {
		return nil, errors.New("reconcile requires a foreign source")
	}

	catalogs := make([][]model.Record, len(in.Folders))
	actual := make(map[string]owner)
	existing := make(map[string]location)
	for i, folder := range in.Folders {
		catalogs[i] = append([]model.Record(nil), folder.Records...)
		for j, rec := range catalogs[i] {
			name := strings.ToLower(rec.RomFile)
			if _, ok := existing[name]; !ok && name != "" {
				existing[name] = location{folder: i, index: j}
			}
		}

		candidates, err := scanner.Enumerate(ctx, folder.Path, folder.Extensions)
		if err != nil {
			logger.Warn("skip folder during reconcile",
				zap.String("folder", folder.Key),
				zap.String("path", folder.Path),
				zap.Error(err),
			)
			continue
		}
		for _, c := range candidates {
			name := strings.ToLower(c.FileName)
			if _, ok := actual[name]; ok {
				continue
			}
			actual[name] = owner{folder: i, subFolder: c.SubFolder, fileName: c.FileName}
		}
	}

	foreign, err := in.Source.Parse(in.ForeignPath)
	if err != nil {
		return nil, fmt.Errorf("parse foreign metadata %s: %w", in.ForeignPath, err)
	}

	result := &Result{
		Changed:  make(map[string][]model.Record),
		Catalogs: make(map[string][]model.Record),
	}
	dirty := make(map[int]struct{})
	handled := make(map[string]struct{}, len(foreign))
	for _, rec := range foreign {
		name := strings.ToLower(strings.TrimSpace(rec.RomFile))
		if name == "" {
			continue
		}
		if _, dup := handled[name]; dup {
			continue
		}
		own, present := actual[name]
		if !present {
			continue
		}
		handled[name] = struct{}{}
		result.Matched++

		if loc, ok := existing[name]; ok {
			target := &catalogs[loc.folder][loc.index]
			if target.FillEmpty(rec) {
				dirty[loc.folder] = struct{}{}
				key := in.Folders[loc.folder].Key
				result.Changed[key] = append(result.Changed[key], *target)
			}
			continue
		}

		folder := in.Folders[own.folder]
		added := model.Record{
			RomFile:    own.fileName,
			SubFolder:  own.subFolder,
			PlatformID: folder.PlatformID,
		}
		added.FillEmpty(rec)
		catalogs[own.folder] = append(catalogs[own.folder], added)
		existing[name] = location{folder: own.folder, index: len(catalogs[own.folder]) - 1}
		dirty[own.folder] = struct{}{}
		result.Changed[folder.Key] = append(result.Changed[folder.Key], added)
	}

	var errs []error
	for i, folder := range in.Folders {
		if _, ok := dirty[i]; !ok {
			continue
		}
		records := model.Dedupe(catalogs[i])
		if err := e.writer.Write(folder.catalogPath(), records); err != nil {
			errs = append(errs, fmt.Errorf("rewrite catalog of %s: %w", folder.Key, err))
			continue
		}
		result.Catalogs[folder.Key] = records
		logger.Info("catalog reconciled",
			zap.String("folder", folder.Key),
			zap.Int("changed", len(result.Changed[folder.Key])),
			zap.Int("records", len(records)),
		)
	}
	return result, errors.Join(errs...)
}
