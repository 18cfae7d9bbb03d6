package retention

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/papercomputeco/playback/pkg/utils"
)

// Usage reports where the archive's bytes live.
type Usage struct {
	TempBytes    int64
	ChunksBytes  int64
	ExportsBytes int64
	CatalogBytes int64
}

func (u *Usage) Total() int64 {
	return u.TempBytes + u.ChunksBytes + u.ExportsBytes + u.CatalogBytes
}

func (u *Usage) Summary() string {
	return fmt.Sprintf("temp %s, chunks %s, exports %s, catalog %s (total %s)",
		utils.FormatSize(u.TempBytes),
		utils.FormatSize(u.ChunksBytes),
		utils.FormatSize(u.ExportsBytes),
		utils.FormatSize(u.CatalogBytes),
		utils.FormatSize(u.Total()))
}

// Usage walks the data tree and totals its size by area.
func (s *Sweeper) Usage() (*Usage, error) {
	u := &Usage{}

	var err error
	if u.TempBytes, err = dirSize(s.tree.TempDir()); err != nil {
		return nil, err
	}
	if u.ChunksBytes, err = dirSize(s.tree.ChunksDir()); err != nil {
		return nil, err
	}
	if u.ExportsBytes, err = dirSize(s.tree.ExportsDir()); err != nil {
		return nil, err
	}

	catalogPath := s.tree.CatalogPath()
	for _, p := range []string{catalogPath, catalogPath + "-wal", catalogPath + "-shm"} {
		if info, err := os.Stat(p); err == nil {
			u.CatalogBytes += info.Size()
		}
	}

	return u, nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sizing %s: %w", root, err)
	}
	return total, nil
}
