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

// Package remote implements a driver that reaches the application over HTTP,
// so sessions using it boot a server first.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/oxtoacart/bpool"

	"github.com/AdrianNowik/capybara/api"
)

const (
	// Name is the name the driver is registered with.
	Name = "remote"

	defaultTimeout = 30 * time.Second
)

var bufferPool = bpool.NewBufferPool(16) //nolint:gochecknoglobals

// Driver loads pages with an HTTP client.
type Driver struct {
	client *http.Client

	mu         sync.RWMutex
	currentURL string
	status     int
	body       string
}

var (
	_ api.ServerDriver = &Driver{}
	_ api.Resetter     = &Driver{}
)

// New returns a driver that uses client, or a default client if nil.
func New(client *http.Client) *Driver {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Driver{client: client}
}

// Factory is the api.DriverFactory for the driver.
// The application is reached through the session's server.
func Factory(http.Handler) (api.Driver, error) {
	return New(nil), nil
}

// NeedsServer returns true.
func (d *Driver) NeedsServer() bool { return true }

// Visit loads url.
func (d *Driver) Visit(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request for %q: %w", url, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	if _, err := io.Copy(buf, resp.Body); err != nil {
		return fmt.Errorf("reading response of %q: %w", url, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.currentURL = resp.Request.URL.String()
	d.status = resp.StatusCode
	d.body = buf.String()

	return nil
}

// Body returns the content of the last loaded page.
func (d *Driver) Body() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.body
}

// CurrentURL returns the URL of the last loaded page, after redirects.
func (d *Driver) CurrentURL() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.currentURL
}

// StatusCode returns the status code of the last loaded page.
func (d *Driver) StatusCode() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// Reset forgets the last loaded page and idle connections.
func (d *Driver) Reset() error {
	d.client.CloseIdleConnections()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.currentURL = ""
	d.status = 0
	d.body = ""
	return nil
}
