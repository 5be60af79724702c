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

// Package rack implements a driver that serves requests straight through
// the application handler, without a server or a browser.
package rack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"

	"github.com/AdrianNowik/capybara/api"
)

const (
	// Name is the name the driver is registered with.
	Name = "rack_test"

	maxRedirects = 5
	defaultHost  = "www.example.com"
)

// ErrNoApp is returned when the driver is created without an application.
var ErrNoApp = errors.New("rack_test requires an application, but none was given")

// Driver is an in-process driver.
type Driver struct {
	app http.Handler

	mu         sync.RWMutex
	currentURL string
	status     int
	header     http.Header
	body       string
}

var (
	_ api.Driver   = &Driver{}
	_ api.Resetter = &Driver{}
)

// New returns a driver for app.
func New(app http.Handler) (*Driver, error) {
	if app == nil {
		return nil, ErrNoApp
	}
	return &Driver{app: app}, nil
}

// Factory is the api.DriverFactory for the driver.
func Factory(app http.Handler) (api.Driver, error) {
	d, err := New(app)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Visit requests rawURL from the application and follows redirects.
func (d *Driver) Visit(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	if u.Host == "" {
		u.Host = defaultHost
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}

	for redirects := 0; ; redirects++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return fmt.Errorf("building request for %q: %w", u, err)
		}
		rec := httptest.NewRecorder()
		d.app.ServeHTTP(rec, req)

		loc := rec.Header().Get("Location")
		if isRedirect(rec.Code) && loc != "" {
			if redirects >= maxRedirects {
				return fmt.Errorf("redirected more than %d times, check for infinite redirects", maxRedirects)
			}
			next, err := u.Parse(loc)
			if err != nil {
				return fmt.Errorf("parsing redirect location %q: %w", loc, err)
			}
			u = next
			continue
		}

		d.mu.Lock()
		d.currentURL = u.String()
		d.status = rec.Code
		d.header = rec.Header().Clone()
		d.body = rec.Body.String()
		d.mu.Unlock()

		return nil
	}
}

// Body returns the content of the last response.
func (d *Driver) Body() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.body
}

// CurrentURL returns the URL of the last response.
func (d *Driver) CurrentURL() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.currentURL
}

// StatusCode returns the status code of the last response.
func (d *Driver) StatusCode() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// ResponseHeaders returns the headers of the last response.
func (d *Driver) ResponseHeaders() http.Header {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.header.Clone()
}

// Reset forgets the last response.
func (d *Driver) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.currentURL = ""
	d.status = 0
	d.header = nil
	d.body = ""
	return nil
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}
