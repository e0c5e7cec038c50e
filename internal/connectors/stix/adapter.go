// Package stix implements the bulk STIX folder adapter. Every *.json file
// in the folder is read as a STIX bundle, a bare list of objects or a
// single object, and its indicator patterns are extracted.
package stix

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/custodia-labs/iocsync/internal/core/domain"
	"github.com/custodia-labs/iocsync/internal/core/ports/driven"
	"github.com/custodia-labs/iocsync/internal/logger"
	"github.com/custodia-labs/iocsync/internal/pattern"
)

// Name is the source name of the STIX folder adapter.
const Name = "stix"

// Verify interface compliance.
var _ driven.FeedAdapter = (*Adapter)(nil)

// Adapter reads STIX documents from a local folder.
type Adapter struct {
	dir   string
	types domain.TypeMap
	log   logger.Prefixed
}

// New creates an adapter for dir. The folder is read on FetchRaw.
func New(dir string, typeOverrides map[string]string) (*Adapter, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("stix: folder is required: %w", domain.ErrInvalidInput)
	}
	return &Adapter{
		dir:   dir,
		types: pattern.TypeMap.Merge(typeOverrides),
		log:   logger.Source(Name),
	}, nil
}

// Name returns "stix".
func (a *Adapter) Name() string { return Name }

// TypeMap returns the STIX observable type table.
func (a *Adapter) TypeMap() domain.TypeMap { return a.types }

// Dir returns the folder being read.
func (a *Adapter) Dir() string { return a.dir }

// FetchRaw extracts indicators from every *.json file in the folder.
// Files that cannot be read or parsed are skipped with a warning.
// A missing folder is an error.
func (a *Adapter) FetchRaw(ctx context.Context) (*driven.FetchResult, error) {
	info, err := os.Stat(a.dir)
	if err != nil {
		return nil, fmt.Errorf("stix: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("stix: %s is not a directory: %w", a.dir, domain.ErrInvalidInput)
	}

	files, err := filepath.Glob(filepath.Join(a.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("stix: list %s: %w", a.dir, err)
	}
	slices.Sort(files)

	result := &driven.FetchResult{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		a.readFile(path, result)
	}
	a.log.Debug("%d files, %d records, %d skipped", len(files), result.Len(), len(result.Skipped))
	return result, nil
}

func (a *Adapter) readFile(path string, result *driven.FetchResult) {
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		a.skip(result, domain.NewSkip(name, err))
		return
	}

	objects, err := pattern.SplitContainer(data)
	if err != nil {
		a.skip(result, domain.NewSkip(name, err))
		return
	}

	records, skipped := pattern.ExtractIndicators(objects, name)
	result.Records = append(result.Records, records...)
	for _, s := range skipped {
		a.skip(result, s)
	}
}

func (a *Adapter) skip(result *driven.FetchResult, s domain.Skip) {
	a.log.Warn("skipping %s: %s", s.Origin, s.Reason)
	result.Skipped = append(result.Skipped, s)
}
