package preprocess

import (
	"bufio"
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/mjonuschat/acceleration-control/pkg/errors"
	"github.com/mjonuschat/acceleration-control/pkg/feature"
	"github.com/mjonuschat/acceleration-control/pkg/gcode"
	"github.com/mjonuschat/acceleration-control/pkg/log"
)

// File rewrites the G-code file at path in place. The new content is written
// to a temporary file in the same directory and renamed over the original,
// which is left untouched on any error.
func File(path string, external feature.Settings, z gcode.ZHop) (*Result, error) {
	res, err := replace(path, external, z)
	if err != nil {
		return nil, withFile(err, path)
	}
	logger.WithFields(log.Fields{
		"file":     path,
		"producer": res.Dialect.String(),
		"layers":   res.Layers,
		"controls": res.Stats.Total(),
	}).Info("Processed file")
	return res, nil
}

func replace(path string, external feature.Settings, z gcode.ZHop) (res *Result, err error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, errors.IOError("open", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return nil, errors.IOError("stat", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, errors.IOError("create temporary file", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			if rmErr := os.Remove(tmp.Name()); rmErr != nil && !stderrors.Is(rmErr, os.ErrNotExist) {
				logger.WithError(rmErr).Warn("Could not remove temporary file " + tmp.Name())
			}
		}
	}()

	w := bufio.NewWriter(tmp)
	if res, err = Process(src, w, external, z); err != nil {
		return nil, err
	}
	if err = w.Flush(); err != nil {
		return nil, errors.IOError("write", err)
	}
	if err = tmp.Sync(); err != nil {
		return nil, errors.IOError("sync", err)
	}
	if err = tmp.Chmod(info.Mode().Perm()); err != nil {
		return nil, errors.IOError("chmod", err)
	}
	if err = tmp.Close(); err != nil {
		return nil, errors.IOError("close", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return nil, errors.IOError("rename", err)
	}
	if err := syncDir(dir); err != nil {
		logger.WithError(err).Warn("Could not sync directory " + dir)
	}
	return res, nil
}

// Files rewrites each file in turn. A failure does not stop the remaining
// files; all failures are returned joined. report, if not nil, is called
// after every file.
func Files(paths []string, external feature.Settings, z gcode.ZHop, report func(path string, res *Result, err error)) error {
	var errs []error
	for _, path := range paths {
		res, err := File(path, external, z)
		if err != nil {
			errs = append(errs, err)
		}
		if report != nil {
			report(path, res, err)
		}
	}
	return stderrors.Join(errs...)
}

func withFile(err error, path string) error {
	var pe *errors.PreprocessError
	if stderrors.As(err, &pe) && pe.File == "" {
		pe.SetFile(path)
	}
	return err
}
