package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/romcatalog/internal/model"
	"go.uber.org/zap"
)

// Allower decides whether a file name carries a playable extension.
type Allower interface {
	Allows(name string) bool
}

// Candidate is one playable file found under a platform folder.
type Candidate struct {
	SubFolder string
	FileName  string
}

// Key returns the composite key of the candidate.
func (c Candidate) Key() model.CompositeKey {
	return model.KeyOf(c.SubFolder, c.FileName)
}

// IsBiosFolder reports whether a subfolder holds firmware instead of games.
func IsBiosFolder(name string) bool {
	return len(name) >= 4 && strings.EqualFold(name[:4], "bios")
}

// Enumerate lists the playable files of base: allow-listed files at the top
// level plus the files of every immediate subfolder that is neither a bios
// folder nor a per-game folder named after a top-level file. A subfolder
// that cannot be read is logged and skipped.
func Enumerate(ctx context.Context, base string, exts Allower) ([]Candidate, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("read rom folder %s: %w", base, err)
	}

	var out []Candidate
	topLevel := make(map[string]struct{})
	var dirs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			dirs = append(dirs, name)
			continue
		}
		if !entry.Type().IsRegular() || !exts.Allows(name) {
			continue
		}
		out = append(out, Candidate{FileName: name})
		topLevel[strings.ToLower(model.BaseName(name))] = struct{}{}
	}

	logger := logutil.GetLogger(ctx)
	for _, dir := range dirs {
		if IsBiosFolder(dir) {
			continue
		}
		if _, ok := topLevel[strings.ToLower(dir)]; ok {
			continue
		}
		sub, err := os.ReadDir(filepath.Join(base, dir))
		if err != nil {
			logger.Warn("skip unreadable subfolder",
				zap.String("base", base),
				zap.String("sub_folder", dir),
				zap.Error(err),
			)
			continue
		}
		for _, entry := range sub {
			if !entry.Type().IsRegular() || !exts.Allows(entry.Name()) {
				continue
			}
			out = append(out, Candidate{SubFolder: dir, FileName: entry.Name()})
		}
	}
	sortCandidates(out)
	return out, nil
}

// Scan returns a bare record for every playable file of base whose key is
// not yet part of existing.
func Scan(ctx context.Context, base string, exts Allower, existing []model.Record) ([]model.Record, error) {
	candidates, err := Enumerate(ctx, base, exts)
	if err != nil {
		return nil, err
	}
	known := model.KeySet(existing)
	var added []model.Record
	for _, c := range candidates {
		key := c.Key()
		if _, ok := known[key]; ok {
			continue
		}
		known[key] = struct{}{}
		added = append(added, model.Record{
			RomFile:   c.FileName,
			SubFolder: c.SubFolder,
		})
	}
	return added, nil
}

// HasPlayable reports whether Enumerate would find at least one file. It
// stops at the first hit.
func HasPlayable(base string, exts Allower) bool {
	entries, err := os.ReadDir(base)
	if err != nil {
		return false
	}
	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			if !IsBiosFolder(entry.Name()) {
				dirs = append(dirs, entry.Name())
			}
			continue
		}
		if entry.Type().IsRegular() && exts.Allows(entry.Name()) {
			return true
		}
	}
	for _, dir := range dirs {
		sub, err := os.ReadDir(filepath.Join(base, dir))
		if err != nil {
			continue
		}
		for _, entry := range sub {
			if entry.Type().IsRegular() && exts.Allows(entry.Name()) {
				return true
			}
		}
	}
	return false
}

func sortCandidates(items []Candidate) {
	sort.Slice(items, func(i, j int) bool {
		a, b := strings.ToLower(items[i].SubFolder), strings.ToLower(items[j].SubFolder)
		if a != b {
			return a < b
		}
		return strings.ToLower(items[i].FileName) < strings.ToLower(items[j].FileName)
	})
}
