// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events an atomic rewrite produces.
const watchDebounce = 100 * time.Millisecond

// Watch calls onChange with freshly loaded settings whenever the file behind
// a FileKV changes on disk, until ctx is done. The parent directory is
// watched because atomic writes replace the file rather than modify it.
func (s *Store) Watch(ctx context.Context, onChange func(Settings)) error {
	fkv, ok := s.kv.(*FileKV)
	if !ok {
		return fmt.Errorf("settings backend %T cannot be watched", s.kv)
	}
	target, err := filepath.Abs(fkv.Path())
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	go func() {
		defer watcher.Close()

		var timer *time.Timer
		fire := make(chan struct{}, 1)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(watchDebounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			case <-fire:
				onChange(s.Load())
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Debug().Err(err).Msg("settings: watcher error")
			}
		}
	}()
	return nil
}
