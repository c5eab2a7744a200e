package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoveredDatabase is a sqlite file found under a configured path.
type DiscoveredDatabase struct {
	Path  string
	Alias string
	Size  int64
}

// Discover expands a sqlite path setting into database files. The setting
// may be a single file, a directory (non-recursive) or a doublestar glob.
// Aliases are unique file stems; the first file is served as "main".
func Discover(path string) ([]*DiscoveredDatabase, error) {
	if path == "" {
		return nil, fmt.Errorf("no sqlite path configured")
	}

	var files []string
	switch {
	case strings.ContainsAny(path, "*?[{"):
		matches, err := doublestar.FilepathGlob(path)
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", path, err)
		}
		for _, match := range matches {
			if isSQLiteFile(match) {
				files = append(files, match)
			}
		}

	default:
		info, err := os.Stat(path)
		switch {
		case os.IsNotExist(err):
			// A new database file is created on open.
			files = append(files, path)
		case err != nil:
			return nil, err
		case info.IsDir():
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, err
			}
			for _, e := range entries {
				if !e.IsDir() && isSQLiteFile(e.Name()) {
					files = append(files, filepath.Join(path, e.Name()))
				}
			}
		default:
			files = append(files, path)
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no sqlite databases found at %s", path)
	}
	sort.Strings(files)

	seen := map[string]int{"main": 1, "temp": 1}
	out := make([]*DiscoveredDatabase, 0, len(files))
	for i, f := range files {
		db, err := discovered(f)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			db.Alias = "main"
		} else {
			db.Alias = uniqueAlias(db.Alias, seen)
		}
		out = append(out, db)
	}
	return out, nil
}

func discovered(path string) (*DiscoveredDatabase, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	db := &DiscoveredDatabase{
		Path:  absPath,
		Alias: strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath)),
	}
	if info, err := os.Stat(absPath); err == nil {
		db.Size = info.Size()
	}
	return db, nil
}

func uniqueAlias(alias string, seen map[string]int) string {
	alias = strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' || r == '.' {
			return '_'
		}
		return r
	}, alias)
	n := seen[alias]
	seen[alias] = n + 1
	if n == 0 {
		return alias
	}
	return fmt.Sprintf("%s_%d", alias, n+1)
}

// isSQLiteFile checks if a file looks like a SQLite database.
func isSQLiteFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".db" || ext == ".sqlite" || ext == ".sqlite3" || ext == ".db3"
}
