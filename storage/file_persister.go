/*
 *
 * capybara - driver and server registry for browser tests
 * Copyright (C) 2021 Load Impact
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

// Package storage saves page snapshots taken by sessions.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// PagePersister persists page snapshots. It abstracts away the where and how
// of writing them.
type PagePersister interface {
	Persist(ctx context.Context, path string, data io.Reader) error
}

// LocalFilePersister writes page snapshots to the local disk.
type LocalFilePersister struct{}

// Persist writes data to path. The content is written to a temporary file in
// the same directory first and renamed into place, so readers never see a
// partially written page.
func (l *LocalFilePersister) Persist(ctx context.Context, path string, data io.Reader) (err error) {
	cp := filepath.Clean(path)

	dir := filepath.Dir(cp)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating a local directory %q: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(cp)+".*")
	if err != nil {
		return fmt.Errorf("creating a temporary file in %q: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if _, err = io.Copy(f, &ctxReader{ctx: ctx, r: data}); err != nil {
		return fmt.Errorf("writing %q: %w", cp, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing the local file %q: %w", f.Name(), err)
	}
	if err = os.Rename(f.Name(), cp); err != nil {
		return fmt.Errorf("moving the page into %q: %w", cp, err)
	}

	return nil
}

// PagePath returns where a page snapshot called name is saved in dir.
// An empty name gets a timestamped default.
func PagePath(dir, name string, now time.Time) string {
	if name == "" {
		name = fmt.Sprintf("capybara-%s.html", now.Format("20060102150405.000000000"))
	}
	if filepath.IsAbs(name) || dir == "" {
		return filepath.Clean(name)
	}
	return filepath.Join(dir, name)
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p) //nolint:wrapcheck
}
