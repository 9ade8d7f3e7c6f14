package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/fsgate/fsgate/internal/chunk"
	"github.com/fsgate/fsgate/internal/continuation"
	"github.com/fsgate/fsgate/internal/shared/types"
)

// SearchOps handles file search and discovery.
type SearchOps struct {
	*FilesystemOps
}

const defaultFindLimit = 100

// errFindLimit terminates the parallel walk once the result cap is hit.
var errFindLimit = errors.New("find result limit reached")

// GetTools returns search tool definitions
func (s *SearchOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.search",
			Name:        "Search Files",
			Description: "Glob-match files under a directory in size-bounded chunks",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Root directory", Required: true},
				{Name: "pattern", Type: "string", Description: "Doublestar glob matched against relative paths", Required: true},
				{Name: "include_dirs", Type: "boolean", Description: "Also match directories (default false)", Required: false},
				{Name: "continuation_token", Type: "string", Description: "Token from a previous truncated search", Required: false},
			},
			Returns: "matches, has_more, continuation_token",
		},
		{
			ID:          "filesystem.find",
			Name:        "Find Files",
			Description: "Fast parallel filename search with a result cap",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Root directory", Required: true},
				{Name: "pattern", Type: "string", Description: "Glob matched against file names", Required: true},
				{Name: "max_results", Type: "number", Description: "Result cap (default 100)", Required: false},
			},
			Returns: "matches (capped), truncated flag",
		},
	}
}

// Search walks the tree in deterministic lexical order and returns one
// chunk of glob matches. The walk restarts from the root on every call;
// the cursor records the last path emitted, and the resumed walk skips
// matches until it passes that path again. Matches created before the
// cursor position between calls are not revisited.
func (s *SearchOps) Search(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}
	pattern, ok := getString(params, "pattern")
	if !ok {
		return Failure("pattern parameter required")
	}
	if !doublestar.ValidatePattern(pattern) {
		return Failure("invalid glob pattern: " + pattern)
	}
	includeDirs := getOptBool(params, "include_dirs", false)

	full, err := s.Guard.Resolve(path)
	if err != nil {
		return FailureFromErr(err)
	}

	targetKey := full + "|" + pattern

	var cursor map[string]interface{}
	tokenID := getOptString(params, "continuation_token", "")
	if tokenID != "" {
		tok, err := s.Tokens.Resume(tokenID, continuation.OpSearchFiles, targetKey)
		if err != nil {
			s.Metrics.RecordTokenRejected()
			return FailureFromErr(err)
		}
		s.Metrics.RecordTokenResumed()
		cursor = tok.Cursor
	}

	matches, err := s.collectMatches(full, path, pattern, includeDirs)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("directory not found: " + path)
		}
		return Failure("search failed: " + err.Error())
	}

	start := resumePosition(matches, cursor)

	idx := start
	seq := chunk.SequenceFunc(func() (interface{}, bool, error) {
		if idx >= len(matches) {
			return nil, false, nil
		}
		m := matches[idx]
		idx++
		return m, true, nil
	})

	mon := s.NewMonitor()
	page, err := chunk.Paginate(
		s.Tokens, mon,
		continuation.OpSearchFiles, targetKey,
		map[string]interface{}{"path": path, "pattern": pattern, "include_dirs": includeDirs},
		tokenID, seq,
		func(emitted int) map[string]interface{} {
			last := ""
			if emitted > 0 {
				last = matches[start+emitted-1].Path
			}
			return map[string]interface{}{
				"emitted":   start + emitted,
				"last_path": last,
			}
		},
	)
	if err != nil {
		return FailureFromErr(err)
	}
	if page.HasMore && tokenID == "" {
		s.Metrics.RecordTokenIssued()
	}
	s.Metrics.RecordChunk("search_files", len(page.Items), page.HasMore)
	s.Metrics.RecordTokens(s.Tokens.Len())

	s.Log.Debug("Search chunk",
		zap.String("root", full),
		zap.String("pattern", pattern),
		zap.Int("matches", len(page.Items)),
		zap.Bool("has_more", page.HasMore))

	return Success(chunk.PageEnvelope(map[string]interface{}{
		"path":    path,
		"pattern": pattern,
		"matches": page.Items,
		"count":   len(page.Items),
	}, page))
}

// collectMatches walks the tree and returns glob matches in lexical walk
// order. fs.WalkDir visits entries of each directory sorted by name, so
// two walks over an unchanged tree produce identical sequences.
func (s *SearchOps) collectMatches(root, displayRoot, pattern string, includeDirs bool) ([]FileInfo, error) {
	matches := []FileInfo{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, werr error) error {
		if werr != nil {
			// A failure on the root itself (missing or unreadable
			// directory) fails the search; unreadable subtrees are
			// skipped, not fatal.
			if p == root {
				return werr
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root {
			return nil
		}
		if d.IsDir() && !includeDirs {
			return nil
		}
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		ok, merr := doublestar.Match(pattern, rel)
		if merr != nil || !ok {
			return nil
		}
		fi, ierr := d.Info()
		if ierr != nil {
			return nil
		}
		matches = append(matches, FileInfo{
			Name:      d.Name(),
			Path:      filepath.Join(displayRoot, rel),
			Size:      fi.Size(),
			IsDir:     d.IsDir(),
			Mode:      fi.Mode().String(),
			Modified:  fi.ModTime(),
			Extension: extensionOf(d.Name(), d.IsDir()),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// resumePosition locates the first match to emit. Walk order is not plain
// string order, so the cursor is matched by path equality; if the last
// emitted path vanished between calls, the emitted count positions the
// resume instead.
func resumePosition(matches []FileInfo, cursor map[string]interface{}) int {
	if cursor == nil {
		return 0
	}
	last := cursorString(cursor, "last_path")
	if last != "" {
		for i, m := range matches {
			if m.Path == last {
				return i + 1
			}
		}
	}
	emitted := cursorInt(cursor, "emitted")
	if emitted < 0 {
		emitted = 0
	}
	if emitted > len(matches) {
		emitted = len(matches)
	}
	return emitted
}

// Find runs a parallel walk and returns up to max_results filename
// matches. Results are capped rather than chunked; the sorted output makes
// the truncation point stable for a given tree.
func (s *SearchOps) Find(ctx context.Context, params map[string]interface{}, callCtx *types.Context) (*types.Result, error) {
	path, ok := getString(params, "path")
	if !ok {
		return Failure("path parameter required")
	}
	pattern, ok := getString(params, "pattern")
	if !ok {
		return Failure("pattern parameter required")
	}
	if !doublestar.ValidatePattern(pattern) {
		return Failure("invalid glob pattern: " + pattern)
	}
	limit := getOptInt(params, "max_results", defaultFindLimit)
	if limit <= 0 {
		limit = defaultFindLimit
	}

	full, err := s.Guard.Resolve(path)
	if err != nil {
		return FailureFromErr(err)
	}

	var mu sync.Mutex
	found := []string{}
	truncated := false

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, full, func(p string, d fs.DirEntry, werr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if werr != nil || d.IsDir() {
			return nil
		}
		ok, merr := doublestar.Match(pattern, d.Name())
		if merr != nil || !ok {
			return nil
		}
		rel, rerr := filepath.Rel(full, p)
		if rerr != nil {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		if len(found) >= limit {
			truncated = true
			return errFindLimit
		}
		found = append(found, filepath.Join(path, filepath.ToSlash(rel)))
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, errFindLimit) {
		return Failure("find failed: " + walkErr.Error())
	}
	sort.Strings(found)

	return Success(map[string]interface{}{
		"path":      path,
		"pattern":   pattern,
		"matches":   found,
		"count":     len(found),
		"truncated": truncated,
	})
}
