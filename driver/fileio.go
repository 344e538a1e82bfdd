package driver

import (
	"os"
	"path/filepath"

	"github.com/juju/errors"
)

// LoadText implements Loader by reading path verbatim. An empty or
// missing file yields an annotated error for propagation, per spec.md
// §6's `load_text(path) -> string | error`.
func LoadText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Annotatef(err, "reading %q", path)
	}
	if len(content) == 0 {
		return "", errors.Errorf("reading %q: file is empty", path)
	}
	return string(content), nil
}

// WriteText implements Writer by writing content to path, creating
// parent directories first. main.cpp never needs the mkdir step (its
// outputs are always siblings of the document), but a generator whose
// output paths are themselves rendered per pass can produce nested
// paths that don't exist yet (SPEC_FULL.md §3).
func WriteText(path string, content []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Annotatef(err, "creating directory for %q", path)
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Annotatef(err, "writing %q", path)
	}
	return nil
}
