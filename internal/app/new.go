package app

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

//go:embed template.content
var manifestTemplate []byte

// newManifest writes a bare-bones manifest to path. It never overwrites an
// existing file.
func (a *App) newManifest(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("content file %q already exists", path)
	}
	if err != nil {
		return err
	}
	if _, err := f.Write(manifestTemplate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	a.logger.Info("Content file created.", "path", path)
	return nil
}
