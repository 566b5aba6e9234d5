package control

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/pipelined/raug"
	"github.com/pipelined/raug/internal/runtime"
	"github.com/pipelined/raug/param"
)

// ApplyParams reads a YAML map of parameter names to values and sets
// them in name order. Every entry is tried, failures are returned
// together.
func ApplyParams(path string, store *param.Store) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	values := make(map[string]float64)
	if err := yaml.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs runtime.Errors
	for _, name := range names {
		if err := store.SetNamed(name, values[name]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.Ret()
}

// WatchParams applies the parameter file at path now and after every
// change until ctx is done. The directory is watched, so files replaced
// by editors are picked up too. Apply errors are logged and watching
// continues.
func WatchParams(ctx context.Context, path string, store *param.Store, log raug.Logger) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	apply := func() {
		if err := ApplyParams(path, store); err != nil {
			log.Warn("failed to apply parameters: ", err)
			return
		}
		log.Debug("applied parameters from ", path)
	}
	apply()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				apply()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error: ", err)
		}
	}
}
