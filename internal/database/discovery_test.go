package database

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.db"))
	touch(t, filepath.Join(dir, "b.sqlite"))
	touch(t, filepath.Join(dir, "readme.md"))
	touch(t, filepath.Join(dir, "nested", "c.db"))
	touch(t, filepath.Join(dir, "nested", "deeper", "a.db"))

	tests := []struct {
		name    string
		path    string
		aliases []string
		wantErr bool
	}{
		{"single file", filepath.Join(dir, "b.sqlite"), []string{"main"}, false},
		{"new file", filepath.Join(dir, "fresh.db"), []string{"main"}, false},
		{"directory", dir, []string{"main", "b"}, false},
		{"glob", filepath.Join(dir, "**", "*.db"), []string{"main", "c", "a"}, false},
		{"empty glob", filepath.Join(dir, "*.none"), nil, true},
		{"no path", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discover(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Discover() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.aliases) {
				t.Fatalf("Discover() found %d, want %d", len(got), len(tt.aliases))
			}
			for i, db := range got {
				if db.Alias != tt.aliases[i] {
					t.Errorf("alias[%d] = %q, want %q", i, db.Alias, tt.aliases[i])
				}
				if !filepath.IsAbs(db.Path) {
					t.Errorf("path %q is not absolute", db.Path)
				}
			}
		})
	}
}

func TestUniqueAlias(t *testing.T) {
	seen := map[string]int{"main": 1}
	if got := uniqueAlias("main", seen); got != "main_2" {
		t.Errorf("uniqueAlias(main) = %q", got)
	}
	if got := uniqueAlias("my-db", seen); got != "my_db" {
		t.Errorf("uniqueAlias(my-db) = %q", got)
	}
}
