package forms

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-trscan/pkg/model"
)

// ErrOutsideRoot reports a path that escapes the configured root.
var ErrOutsideRoot = errors.New("forms: path outside root")

// CheckPath verifies value against the field's path constraint. Without a
// configured root any value is accepted; the scanner resolves it later.
func CheckPath(field model.Field, value string) error {
	constraint := field.Path
	if constraint == nil || strings.TrimSpace(constraint.Root) == "" {
		return nil
	}

	root := filepath.Clean(constraint.Root)
	target := value
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, value)
	}
	if !constraint.Recursive && strings.ContainsRune(rel, filepath.Separator) {
		return fmt.Errorf("Select a valid choice. %s is not one of the available choices.", value)
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("Select a valid choice. %s is not one of the available choices.", value)
	}
	if info.IsDir() && !constraint.AllowFolders {
		return fmt.Errorf("%s is a folder, select a file.", value)
	}
	if !info.IsDir() && !constraint.AllowFiles {
		return fmt.Errorf("%s is a file, select a folder.", value)
	}
	return nil
}

// ListPaths returns the entries below the constraint root that a path field
// may select, relative to the root and sorted.
func ListPaths(constraint model.PathConstraint) ([]string, error) {
	root := strings.TrimSpace(constraint.Root)
	if root == "" {
		return nil, nil
	}
	root = filepath.Clean(root)

	var out []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if entry.IsDir() {
			if constraint.AllowFolders {
				out = append(out, rel)
			}
			if !constraint.Recursive {
				return fs.SkipDir
			}
			return nil
		}
		if constraint.AllowFiles {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("forms: list paths under %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// RootDecorator points every path field of a form at root.
func RootDecorator(root string) model.Decorator {
	return model.DecoratorFunc(func(form *model.FormModel) error {
		if form == nil || strings.TrimSpace(root) == "" {
			return nil
		}
		for i := range form.Fields {
			field := &form.Fields[i]
			if field.Type != model.FieldTypePath {
				continue
			}
			if field.Path == nil {
				field.Path = &model.PathConstraint{AllowFiles: true, AllowFolders: true}
			}
			field.Path.Root = root
		}
		return nil
	})
}
