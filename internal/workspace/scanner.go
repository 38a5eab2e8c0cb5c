// Package workspace discovers and indexes variable-bearing files under the
// workspace root, and keeps the index current as files change on disk.
package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"cssvars.dev/cvls/internal/config"
	"cssvars.dev/cvls/internal/log"
	"cssvars.dev/cvls/internal/scanner"
	"cssvars.dev/cvls/internal/uriutil"
	"cssvars.dev/cvls/internal/vars"
	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
)

// Scanner walks the workspace and feeds matching files into the index.
type Scanner struct {
	root    string
	cfg     config.Config
	index   *vars.Index
	workers int
	ign     *ignore.GitIgnore
}

// NewScanner creates a scanner rooted at root. A .gitignore at the root is
// honored in addition to the configured ignore globs.
func NewScanner(root string, cfg config.Config, index *vars.Index) *Scanner {
	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	// Missing or unreadable .gitignore just means no extra filtering
	ign, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		ign = nil
	}

	return &Scanner{
		root:    root,
		cfg:     cfg,
		index:   index,
		workers: workers,
		ign:     ign,
	}
}

// Scan walks the root and indexes every matching file, fanning reads and
// scans across a bounded worker pool. Individual file failures are logged
// and skipped. Returns the number of files indexed.
func (s *Scanner) Scan() (int, error) {
	var paths []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debug("workspace walk: %v", err)
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if s.Matches(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	// Each job reserves its sequence number before the read, so however
	// the pool interleaves, a slow scan can never overwrite a newer one.
	jobs := make(chan string)
	var indexed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				if s.scanOne(path) {
					indexed.Add(1)
				}
			}
		}()
	}
	for _, path := range paths {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	n := int(indexed.Load())
	log.Info("workspace scan indexed %d of %d files", n, len(paths))
	return n, nil
}

// ScanFile reads and indexes a single file from disk.
func (s *Scanner) ScanFile(path string) bool {
	return s.scanOne(path)
}

func (s *Scanner) scanOne(path string) bool {
	uri := uriutil.PathToURI(path)
	seq := s.index.NextSeq(uri)

	content, err := os.ReadFile(path)
	if err != nil {
		log.Warn("reading %s: %v", path, err)
		return false
	}

	defs, uses, ok := scanner.ScanDocument(uri, string(content))
	if !ok {
		return false
	}
	return s.index.IndexFileVersion(uri, seq, defs, uses)
}

// Matches reports whether path is a workspace file the index should carry:
// inside the root, matching a lookup glob, not ignored, and of a scannable
// type.
func (s *Scanner) Matches(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	if !matchAny(s.cfg.LookupGlobs, rel) {
		return false
	}
	if matchAny(s.cfg.IgnoreGlobs, rel) {
		return false
	}
	if s.ign != nil && s.ign.MatchesPath(rel) {
		return false
	}
	return scanner.Supported(path)
}

func matchAny(globs []string, rel string) bool {
	for _, glob := range globs {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}
	return false
}
