package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	analyzer "github.com/max-frai/rust-analyzer"
)

// configFile is looked up in the workspace directory.
const configFile = "analyzer.yaml"

// localRoot is the single source root the CLI registers for the workspace.
const localRoot analyzer.SourceRootID = 0

// Config is the optional per-workspace configuration.
type Config struct {
	// Include and Exclude are doublestar globs over root-relative paths.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// CrateRoots lists candidate crate-root files; every one that exists
	// becomes a crate.
	CrateRoots []string `yaml:"crate_roots"`
}

func defaultConfig() Config {
	return Config{
		Include:    []string{"**/*.rs"},
		CrateRoots: []string{"src/lib.rs", "src/main.rs", "lib.rs", "main.rs"},
	}
}

// loadConfig reads analyzer.yaml from dir, falling back to defaults for
// absent fields. A missing file is not an error.
func loadConfig(dir string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read %s: %w", configFile, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", configFile, err)
	}
	if len(file.Include) > 0 {
		cfg.Include = file.Include
	}
	if len(file.Exclude) > 0 {
		cfg.Exclude = file.Exclude
	}
	if len(file.CrateRoots) > 0 {
		cfg.CrateRoots = file.CrateRoots
	}
	return cfg, nil
}

// skipDirs are never descended into during discovery.
var skipDirs = map[string]bool{
	"target": true,
	"vendor": true,
}

// workspace owns the analysis host for one directory plus the path<->file
// bookkeeping the CLI needs to translate events and print locations.
type workspace struct {
	dir  string
	cfg  Config
	host *analyzer.AnalysisHost

	byPath map[string]analyzer.FileID
	next   analyzer.FileID
}

// loadWorkspace discovers the workspace's Rust files, applies them as the
// initial change batch, and builds the crate graph from the configured
// crate roots.
func loadWorkspace(dir string) (*workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace dir %q: %w", dir, err)
	}
	cfg, err := loadConfig(abs)
	if err != nil {
		return nil, err
	}

	ws := &workspace{
		dir:    abs,
		cfg:    cfg,
		host:   analyzer.NewAnalysisHost(),
		byPath: map[string]analyzer.FileID{},
		next:   1,
	}

	paths, err := ws.discover()
	if err != nil {
		return nil, err
	}

	change := analyzer.NewChange()
	change.AddRoot(localRoot, true)
	for _, rel := range paths {
		text, err := os.ReadFile(filepath.Join(abs, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", rel, err)
		}
		change.AddFile(localRoot, ws.fileID(rel), rel, string(text))
	}

	graph := analyzer.NewCrateGraph()
	for _, rootPath := range cfg.CrateRoots {
		if id, ok := ws.byPath[rootPath]; ok {
			crate := graph.AddCrate(id)
			slog.Debug("registered crate", "root", rootPath, "crate", crate)
		}
	}
	change.SetCrateGraph(graph)
	ws.host.Apply(change)

	slog.Debug("workspace loaded", "dir", abs, "files", len(paths))
	return ws, nil
}

// discover walks the workspace and returns sorted root-relative paths of
// files matching the include globs and no exclude glob.
func (ws *workspace) discover() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(ws.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != ws.dir && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(ws.dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if ws.matches(rel) {
			paths = append(paths, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk workspace: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (ws *workspace) matches(rel string) bool {
	included := false
	for _, g := range ws.cfg.Include {
		if ok, _ := doublestar.Match(g, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, g := range ws.cfg.Exclude {
		if ok, _ := doublestar.Match(g, rel); ok {
			return false
		}
	}
	return true
}

// fileID returns the stable ID for a root-relative path, allocating on
// first sight.
func (ws *workspace) fileID(rel string) analyzer.FileID {
	if id, ok := ws.byPath[rel]; ok {
		return id
	}
	id := ws.next
	ws.next++
	ws.byPath[rel] = id
	return id
}

// openWorkspace is the shared entry point for all commands.
func openWorkspace() (*workspace, error) {
	return loadWorkspace(flagDir)
}
