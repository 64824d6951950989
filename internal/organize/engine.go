// Package organize moves notes into their rule-determined folders. The
// Engine wraps the decision (is the note already where it belongs?) and
// the execution (folder creation, collision-safe rename) and exposes a
// per-note pipeline used by the CLI and the watch daemon.
package organize

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gobwas/glob"

	"notesort/internal/config"
	"notesort/internal/errors"
	"notesort/internal/frontmatter"
	"notesort/internal/log"
	"notesort/internal/rules"
	"notesort/pkg/types"
)

// Engine handles note filing operations.
type Engine struct {
	cfg    *config.Config
	root   string
	dryRun bool
	mu     sync.Mutex // serializes collision checks and renames
}

// NewWithConfig creates an Engine bound to a configuration. Relative
// rule targets resolve against the config's root.
func NewWithConfig(cfg *config.Config) *Engine {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	return &Engine{
		cfg:    cfg,
		root:   root,
		dryRun: cfg.Settings.DryRun,
	}
}

// SetRoot overrides the folder relative targets resolve against.
func (e *Engine) SetRoot(root string) {
	if root != "" {
		e.root = root
	}
}

// SetDryRun sets whether operations should be performed or just simulated.
func (e *Engine) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

// IsDryRun returns whether the engine is in dry run mode.
func (e *Engine) IsDryRun() bool {
	return e.dryRun
}

// Root returns the folder relative targets resolve against.
func (e *Engine) Root() string {
	return e.root
}

// resolveTarget normalizes a rule's target folder: a trailing separator
// is stripped and relative paths resolve against the engine root.
func (e *Engine) resolveTarget(target string) string {
	target = strings.TrimSuffix(target, "/")
	target = strings.TrimSuffix(target, string(filepath.Separator))
	if target == "" {
		return filepath.Clean(e.root)
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(e.root, filepath.FromSlash(target)))
}

// Decide determines whether a matched rule requires a move. When the
// note's containing folder already equals the rule's normalized target
// the decision is skip: not an error, just nothing to do. The skip is
// what makes save-triggered re-invocations harmless no-ops instead of
// move loops.
func (e *Engine) Decide(path string, rule types.Rule) (dest string, skip bool) {
	target := e.resolveTarget(rule.Target)
	if filepath.Clean(filepath.Dir(path)) == target {
		return "", true
	}
	return target, false
}

// Execute moves a note into the destination folder. A missing folder is
// created (full chain, tolerating existing intermediates) when create
// is set, otherwise the move is aborted with a FolderMissing error. A
// name collision at the destination produces an incrementing " 1",
// " 2", ... suffix before the extension so no existing note is ever
// overwritten. The rename itself is a single atomic operation. All
// failures are reported through the returned error; moved is true only
// when the note actually changed location.
func (e *Engine) Execute(path, destFolder string, create bool) (finalDest string, moved bool, err error) {
	destFolder = filepath.Clean(destFolder)

	info, statErr := os.Stat(destFolder)
	switch {
	case statErr == nil:
		if !info.IsDir() {
			return "", false, errors.NewFileError("destination is not a folder", destFolder, errors.InvalidPath, nil)
		}
	case os.IsNotExist(statErr):
		if !create {
			return "", false, errors.NewFileError("destination folder does not exist", destFolder, errors.FolderMissing, nil)
		}
		if e.dryRun {
			break
		}
		if mkErr := os.MkdirAll(destFolder, 0755); mkErr != nil {
			return "", false, errors.NewFileError("cannot create destination folder", destFolder, errors.FolderCreateFailed, mkErr)
		}
	default:
		return "", false, errors.NewFileError("cannot access destination folder", destFolder, errors.FileAccessDenied, statErr)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	dest := filepath.Join(destFolder, filepath.Base(path))
	if filepath.Clean(path) == dest {
		log.Debugf("source and destination are the same, skipping: %s", path)
		return dest, false, nil
	}

	dest, err = uniqueDestName(dest)
	if err != nil {
		return "", false, err
	}

	if e.dryRun {
		log.Infof("would move %s -> %s", path, dest)
		return dest, false, nil
	}

	if err := os.Rename(path, dest); err != nil {
		return "", false, errors.NewFileError("failed to move note", path, errors.MoveFailed, err)
	}
	log.LogWithFields(log.F("from", path), log.F("to", dest)).Info("moved note")
	return dest, true, nil
}

// uniqueDestName returns the destination path itself when free, or the
// first "name N.ext" variant that is, re-checking existence each step.
func uniqueDestName(dest string) (string, error) {
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest, nil
	}

	ext := filepath.Ext(dest)
	base := strings.TrimSuffix(dest, ext)
	for counter := 1; counter <= 1000; counter++ {
		candidate := fmt.Sprintf("%s %d%s", base, counter, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			log.Debugf("destination taken, renaming to %s", candidate)
			return candidate, nil
		}
	}
	return "", errors.NewFileError("no free name after 1000 attempts", dest, errors.MoveFailed, nil)
}

// BatchMove applies Execute to each note independently and returns the
// count of successful moves. One note's failure never aborts the batch.
func (e *Engine) BatchMove(paths []string, destFolder string, create bool) int {
	moved := 0
	for _, path := range paths {
		_, ok, err := e.Execute(path, destFolder, create)
		if err != nil {
			log.LogWithError(err).Warn("batch move: note skipped")
			continue
		}
		if ok {
			moved++
		}
	}
	return moved
}

// ProcessFile runs the full pipeline for one note: read, parse the
// metadata block, select the first matching enabled rule, decide, and
// execute. The metadata is re-read on every call; nothing is cached
// across invocations because the note may change between triggers.
func (e *Engine) ProcessFile(path string) types.MoveResult {
	result := types.MoveResult{Source: path}

	if !e.cfg.Enabled {
		return result
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Error = errors.NewFileError("cannot read note", path, errors.FileNotFound, err)
		return result
	}

	doc, ok := frontmatter.ParseDocument(path, string(data))
	if !ok {
		// No metadata: the note is simply not a candidate.
		log.Debugf("no metadata block in %s", path)
		return result
	}

	rule, ok := rules.SelectMatchingRule(doc, e.cfg.Rules)
	if !ok {
		return result
	}
	result.RuleID = rule.ID

	dest, skip := e.Decide(path, *rule)
	if skip {
		log.Debugf("%s already filed under %s", path, rule.Target)
		return result
	}

	finalDest, moved, err := e.Execute(path, dest, rule.CreateFolder)
	result.Destination = finalDest
	result.Moved = moved
	result.Error = err
	return result
}

// ProcessAll runs the pipeline over a batch of notes strictly
// sequentially and returns the per-note results plus the moved count.
// Sequential processing keeps concurrent folder creation for a shared
// new target out of the picture.
func (e *Engine) ProcessAll(paths []string) ([]types.MoveResult, int) {
	results := make([]types.MoveResult, 0, len(paths))
	moved := 0
	for _, path := range paths {
		res := e.ProcessFile(path)
		if res.Error != nil {
			log.LogWithError(res.Error).Warn("scan: note not moved")
		}
		if res.Moved {
			moved++
		}
		results = append(results, res)
	}
	return results, moved
}

// Collect walks root and returns the notes the scan configuration
// selects: paths matching an include glob and no exclude glob, both
// evaluated against the slash-separated path relative to root.
func Collect(root string, sc config.Scan) ([]string, error) {
	includes, err := compileGlobs(sc.Include)
	if err != nil {
		return nil, err
	}
	excludes, err := compileGlobs(sc.Exclude)
	if err != nil {
		return nil, err
	}

	var files []string
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debugf("scan: skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if matchesAny(excludes, rel) {
			return nil
		}
		if matchesAny(includes, rel) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.NewFileError("cannot scan folder", root, errors.FileAccessDenied, walkErr)
	}
	return files, nil
}

// MatchScan reports whether a slash-separated path relative to the
// vault root passes the scan filters. Patterns that fail to compile are
// skipped; config validation catches them up front.
func MatchScan(rel string, sc config.Scan) bool {
	for _, p := range sc.Exclude {
		if g, err := glob.Compile(p, '/'); err == nil && g.Match(rel) {
			return false
		}
	}
	for _, p := range sc.Include {
		if g, err := glob.Compile(p, '/'); err == nil && g.Match(rel) {
			return true
		}
	}
	return false
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.NewRuleError("invalid scan pattern", p, errors.InvalidPattern, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchesAny(globs []glob.Glob, rel string) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
