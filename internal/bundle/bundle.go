// Package bundle serves the static syllabus and routine configuration shipped
// with the binary. A directory on disk can replace the embedded copy.
package bundle

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
)

//go:embed data
var embedded embed.FS

var ErrUnknownConfig = errors.New("unknown syllabus config")

const routineFile = "routine.json"

type Bundle struct {
	fsys fs.FS
}

// New returns the embedded bundle when dir is empty, otherwise a bundle read
// from dir (same layout: routine.json and syllabus/<name>.json).
func New(dir string) *Bundle {
	if dir == "" {
		sub, _ := fs.Sub(embedded, "data")
		return &Bundle{fsys: sub}
	}
	return &Bundle{fsys: os.DirFS(dir)}
}

// Configs lists the available syllabus names.
func (b *Bundle) Configs() ([]string, error) {
	entries, err := fs.ReadDir(b.fsys, "syllabus")
	if err != nil {
		return nil, fmt.Errorf("bundle: list configs: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Syllabus returns a fresh copy of the named default tree.
func (b *Bundle) Syllabus(name string) (domain.SyllabusTree, error) {
	if name == "" {
		name = domain.DefaultConfigName
	}
	if strings.ContainsAny(name, `/\.`) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConfig, name)
	}

	data, err := fs.ReadFile(b.fsys, path.Join("syllabus", name+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownConfig, name)
	}
	if err != nil {
		return nil, fmt.Errorf("bundle: read syllabus %s: %w", name, err)
	}

	var tree domain.SyllabusTree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: syllabus %s: %v", domain.ErrDecode, name, err)
	}
	if err := tree.Validate(); err != nil {
		return nil, fmt.Errorf("bundle: syllabus %s: %w", name, err)
	}
	return tree, nil
}

func (b *Bundle) Routine() (domain.RoutineTable, error) {
	data, err := fs.ReadFile(b.fsys, routineFile)
	if err != nil {
		return nil, fmt.Errorf("bundle: read routine: %w", err)
	}
	return domain.ParseRoutineTable(data)
}
