package datadir

import (
	"errors"
	"fmt"
	"os"
)

// RestrictFile chmods a file to owner read/write only. Missing files are
// not an error; the catalog's -wal and -shm sidecars come and go with
// checkpointing.
func RestrictFile(path string) error {
	err := os.Chmod(path, 0o600)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restricting %s: %w", path, err)
	}
	return nil
}

// RestrictCatalogFiles tightens permissions on the catalog database and
// its WAL sidecars.
func RestrictCatalogFiles(catalogPath string) error {
	for _, p := range []string{catalogPath, catalogPath + "-wal", catalogPath + "-shm"} {
		if err := RestrictFile(p); err != nil {
			return err
		}
	}
	return nil
}
