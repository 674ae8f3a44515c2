// Package securefile reads and writes the client's local JSON state files with atomic writes
// and owner-only permissions.
package securefile

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// Options controls file and directory permissions.
type Options struct {
	FilePerm      os.FileMode
	DirectoryPerm os.FileMode
}

func defaultOptions() Options {
	return Options{
		FilePerm:      0o600,
		DirectoryPerm: 0o700,
	}
}

// WriteJSON marshals v as pretty JSON and writes it atomically to path.
func WriteJSON[T any](path string, v T, opt ...Options) error {
	o := mergeOptions(opt...)

	if err := os.MkdirAll(filepath.Dir(path), o.DirectoryPerm); err != nil {
		return errors.Wrapf(err, "mkdir %s", filepath.Dir(path))
	}

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal json")
	}
	return atomicWriteFile(path, b, o.FilePerm)
}

// ReadJSON reads path and unmarshals it into T. A missing file is reported with os.ErrNotExist.
func ReadJSON[T any](path string) (T, error) {
	var zero T

	b, err := os.ReadFile(path)
	if err != nil {
		return zero, errors.Wrap(err, "read file")
	}

	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, errors.Wrapf(err, "unmarshal %s", filepath.Base(path))
	}
	return out, nil
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfigPathCandidates returns locations for an app state file, in priority order.
func ConfigPathCandidates(app, filename string) ([]string, error) {
	if app == "" {
		return nil, errors.New("app must not be empty")
	}
	if filename == "" {
		return nil, errors.New("filename must not be empty")
	}

	var paths []string
	seen := map[string]bool{}
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		paths = append(paths, p)
	}

	// <home>/.config/<app>/<filename>
	joinHomeStyle := func(homeLike string) string {
		return filepath.Join(homeLike, ".config", app, filename)
	}

	if realHome := os.Getenv("SNAP_REAL_HOME"); realHome != "" {
		add(joinHomeStyle(realHome))
	}
	if home := os.Getenv("HOME"); home != "" {
		add(joinHomeStyle(home))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		add(filepath.Join(dir, app, filename))
	} else if len(paths) == 0 {
		return nil, errors.Wrap(err, "UserConfigDir")
	}

	return paths, nil
}

// ResolvePath picks the first existing candidate, else the first candidate.
func ResolvePath(app, filename string) (string, error) {
	cands, err := ConfigPathCandidates(app, filename)
	if err != nil {
		return "", err
	}
	if len(cands) == 0 {
		return "", errors.New("no config path candidates")
	}
	for _, p := range cands {
		if Exists(p) {
			return p, nil
		}
	}
	return cands[0], nil
}

func mergeOptions(opt ...Options) Options {
	o := defaultOptions()
	if len(opt) == 0 {
		return o
	}
	in := opt[0]
	if in.FilePerm != 0 {
		o.FilePerm = in.FilePerm
	}
	if in.DirectoryPerm != 0 {
		o.DirectoryPerm = in.DirectoryPerm
	}
	return o
}

func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	if err := os.WriteFile(tmp, data, perm); err != nil {
		return errors.Wrap(err, "write tmp")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "rename")
	}
	return nil
}
