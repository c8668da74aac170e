// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// =============================================================================
// FILE FOLLOWING
// =============================================================================

// followPollInterval rechecks the file when no event arrives, covering
// filesystems where fsnotify misses writes.
const followPollInterval = time.Second

// followReader reads a file to its end and then blocks until more is
// appended. Truncation restarts from the beginning. Removing or renaming the
// file ends the stream with io.EOF.
type followReader struct {
	ctx     context.Context
	path    string
	file    *os.File
	watcher *fsnotify.Watcher
	offset  int64
	log     *logrus.Entry
}

func openFollow(ctx context.Context, path string, log *logrus.Entry) (*followReader, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	// Watch the directory so replace-by-rename and removal are reported
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		file.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &followReader{
		ctx:     ctx,
		path:    abs,
		file:    file,
		watcher: watcher,
		log:     log,
	}, nil
}

// Read implements io.Reader.
func (f *followReader) Read(p []byte) (int, error) {
	for {
		n, err := f.file.Read(p)
		f.offset += int64(n)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}

		done, err := f.wait()
		if err != nil {
			return 0, err
		}
		if done {
			return 0, io.EOF
		}
	}
}

// wait blocks until the file may have changed. done is true once the file
// is gone.
func (f *followReader) wait() (done bool, err error) {
	timer := time.NewTimer(followPollInterval)
	defer timer.Stop()

	for {
		select {
		case <-f.ctx.Done():
			return false, f.ctx.Err()

		case <-timer.C:
			return f.checkTruncated()

		case err, ok := <-f.watcher.Errors:
			if !ok {
				return true, nil
			}
			f.log.WithError(err).Warn("file watcher error")

		case event, ok := <-f.watcher.Events:
			if !ok {
				return true, nil
			}
			if filepath.Clean(event.Name) != f.path {
				continue
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				f.log.WithField("path", f.path).Debug("followed file went away")
				return true, nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				return f.checkTruncated()
			}
		}
	}
}

// checkTruncated rewinds when the file shrank below what was already read.
func (f *followReader) checkTruncated() (bool, error) {
	if _, err := os.Stat(f.path); errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	info, err := f.file.Stat()
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", f.path, err)
	}
	if info.Size() < f.offset {
		f.log.WithField("path", f.path).Debug("followed file truncated, rewinding")
		if _, err := f.file.Seek(0, io.SeekStart); err != nil {
			return false, fmt.Errorf("rewind %s: %w", f.path, err)
		}
		f.offset = 0
	}
	return false, nil
}

// Close releases the file and the watcher.
func (f *followReader) Close() error {
	werr := f.watcher.Close()
	ferr := f.file.Close()
	return errors.Join(werr, ferr)
}
