// Package store supplies work-item documents at a revision. The concrete
// versioning system is an external collaborator; implementations only
// need to answer "list of (path, content) at revision X".
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store lists tracked documents at a revision, keyed by repo-relative path.
type Store interface {
	Documents(rev string) (map[string]string, error)
}

// DirStore reads documents from a plain directory tree. It ignores the
// revision argument: the directory itself is the revision, which lets
// callers compare two checked-out trees directly.
type DirStore struct {
	Dir string
}

// NewDirStore creates a DirStore over dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

// Documents walks the tree and returns every regular file's content.
func (s *DirStore) Documents(string) (map[string]string, error) {
	docs := make(map[string]string)

	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.Dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		docs[rel] = string(data)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return docs, nil
		}
		return nil, fmt.Errorf("walk %s: %w", s.Dir, err)
	}

	return docs, nil
}
