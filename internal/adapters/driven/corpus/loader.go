package corpus

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/logger"
)

// Kind selects how a corpus source is parsed.
type Kind string

// Supported source kinds.
const (
	// KindTabular is a CSV file with id, content and date columns.
	KindTabular Kind = "tabular"

	// KindStructured is a JSON array of question objects, or a directory of them.
	KindStructured Kind = "structured"
)

// ParseKind converts a user-supplied name into a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tabular", "csv":
		return KindTabular, nil
	case "structured", "json":
		return KindStructured, nil
	default:
		return "", fmt.Errorf("%w: corpus format %q", domain.ErrUnsupportedType, name)
	}
}

// KindOf guesses the kind from a path: .csv files are tabular, everything
// else (JSON files and directories) is structured.
func KindOf(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return KindTabular
	}
	return KindStructured
}

// Source names a corpus on disk.
type Source struct {
	Kind Kind
	Path string
}

// Load reads and validates the corpus described by src.
func Load(src Source) (*domain.Corpus, error) {
	info, err := os.Stat(src.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: corpus %s", domain.ErrNotFound, src.Path)
		}
		return nil, fmt.Errorf("stat corpus: %w", err)
	}

	defer logger.Timed("load corpus")()

	var items []domain.Item
	switch src.Kind {
	case KindTabular:
		if info.IsDir() {
			return nil, fmt.Errorf("%w: tabular corpus %s is a directory", domain.ErrInvalidArgument, src.Path)
		}
		items, err = readTabularFile(src.Path)

	case KindStructured:
		if info.IsDir() {
			items, err = readStructuredDir(src.Path)
		} else {
			items, err = readStructuredFile(src.Path)
		}

	default:
		return nil, fmt.Errorf("%w: corpus kind %q", domain.ErrUnsupportedType, src.Kind)
	}
	if err != nil {
		return nil, err
	}

	corpus, err := domain.NewCorpus(src.Path, items)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded %d items from %s (%s)", corpus.Len(), src.Path, src.Kind)
	return corpus, nil
}

// readStructuredDir merges every *.json file of dir in lexical filename order.
func readStructuredDir(dir string) ([]domain.Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read corpus directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no *.json files in %s", domain.ErrNotFound, dir)
	}
	slices.Sort(names)

	var items []domain.Item
	for _, name := range names {
		fileItems, err := readStructuredFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		logger.Debug("  %s: %d items", name, len(fileItems))
		items = append(items, fileItems...)
	}
	return items, nil
}

func readStructuredFile(path string) ([]domain.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return parseStructured(path, f)
}

func readTabularFile(path string) ([]domain.Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return parseTabular(path, f)
}
