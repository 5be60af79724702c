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

// Package session binds a driver name to an application under test.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
	"github.com/AdrianNowik/capybara/storage"
)

// ErrNoServers is returned when a driver needs a server but the session
// was built without a way to start one.
var ErrNoServers = errors.New("driver needs a server but the session cannot start one")

// DriverResolver builds drivers by name.
type DriverResolver interface {
	Resolve(name string, app http.Handler) (api.Driver, error)
}

// ServerStarter starts servers by name.
type ServerStarter interface {
	Start(name string, app http.Handler, port int, host null.String) (api.Server, error)
}

// Session is the unit tests drive an application through.
// The driver is created on first use and kept for the session lifetime.
type Session struct {
	id         string
	driverName string
	app        http.Handler

	config    *common.Config
	drivers   DriverResolver
	servers   ServerStarter
	persister storage.PagePersister
	logger    *common.Logger
	now       func() time.Time

	mu     sync.Mutex
	driver api.Driver
	server api.Server
}

// Option configures a Session.
type Option func(*Session)

// WithConfig makes the session read its settings from config.
func WithConfig(config *common.Config) Option {
	return func(s *Session) { s.config = config }
}

// WithServers lets the session boot servers for drivers that need one.
func WithServers(servers ServerStarter) Option {
	return func(s *Session) { s.servers = servers }
}

// WithPersister sets where SavePage writes pages.
func WithPersister(p storage.PagePersister) Option {
	return func(s *Session) { s.persister = p }
}

// WithLogger sets the session logger.
func WithLogger(logger *common.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// New returns a session for the named driver and app.
// Nothing is resolved or started until the driver is first needed.
func New(driverName string, app http.Handler, drivers DriverResolver, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		driverName: driverName,
		app:        app,
		drivers:    drivers,
		persister:  &storage.LocalFilePersister{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config == nil {
		s.config = common.NewConfig()
	}
	if s.logger == nil {
		s.logger = common.NewNullLogger()
	}
	return s
}

// ID returns the unique session ID.
func (s *Session) ID() string { return s.id }

// DriverName returns the name of the session driver.
func (s *Session) DriverName() string { return s.driverName }

// App returns the application under test.
func (s *Session) App() http.Handler { return s.app }

// Driver returns the session driver, creating it on the first call.
// A failed resolution is not remembered, so a later call can succeed once
// the driver is registered.
func (s *Session) Driver() (api.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resolveDriver()
}

func (s *Session) resolveDriver() (api.Driver, error) {
	if s.driver != nil {
		return s.driver, nil
	}

	drv, err := s.drivers.Resolve(s.driverName, s.app)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	s.logger.Debugf("Session:Driver", "sid:%s resolved driver %q", s.id, s.driverName)
	s.driver = drv

	return drv, nil
}

// Server returns the server booted for the session, if any.
func (s *Session) Server() api.Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server
}

// Visit navigates to path. Relative paths are resolved against the app host,
// the session server or the default host, in that order.
func (s *Session) Visit(ctx context.Context, path string) error {
	s.mu.Lock()
	drv, err := s.resolveDriver()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	base, err := s.baseURL(drv)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	target, err := joinURL(base, path)
	if err != nil {
		return err
	}

	s.logger.Debugf("Session:Visit", "sid:%s visiting %q", s.id, target)

	if err := drv.Visit(ctx, target); err != nil {
		return fmt.Errorf("visiting %q: %w", target, err)
	}
	return nil
}

// baseURL returns the URL relative paths are visited against.
// It boots a server if the driver needs one.
func (s *Session) baseURL(drv api.Driver) (string, error) {
	appHost := s.config.AppHost()

	sd, ok := drv.(api.ServerDriver)
	if ok && sd.NeedsServer() && s.config.RunServer() && s.app != nil {
		srv, err := s.bootServer()
		if err != nil {
			return "", err
		}
		if appHost.Valid {
			return appHost.String, nil
		}
		return srv.URL(), nil
	}

	if appHost.Valid {
		return appHost.String, nil
	}
	return s.config.DefaultHost().String, nil
}

func (s *Session) bootServer() (api.Server, error) {
	if s.server != nil {
		if !api.Stopped(s.server) {
			return s.server, nil
		}
		s.logger.Debugf("Session:bootServer", "sid:%s server %s stopped", s.id, s.server.ID())
		s.server = nil
	}
	if s.servers == nil {
		return nil, ErrNoServers
	}

	host := s.config.ServerHost()
	srv, err := s.servers.Start(
		s.config.ServerName(), s.app, s.config.ServerPort(), null.NewString(host, host != ""),
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	s.logger.Debugf("Session:bootServer", "sid:%s using server %s at %s", s.id, srv.ID(), srv.URL())
	s.server = srv

	return srv, nil
}

// joinURL resolves path against base. Absolute URLs are returned as is.
// The base path is kept as a prefix, so apps mounted below a path work.
func joinURL(base, path string) (string, error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parsing visit url %q: %w", path, err)
	}
	if u.IsAbs() || base == "" {
		return u.String(), nil
	}

	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base url %q: %w", base, err)
	}
	if u.Host != "" {
		// scheme relative, like //example.com/foo
		u.Scheme = b.Scheme
		return u.String(), nil
	}

	p := u.Path
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	b.Path = strings.TrimSuffix(b.Path, "/") + p
	b.RawPath = ""
	b.RawQuery = u.RawQuery
	b.Fragment = u.Fragment

	return b.String(), nil
}

// Body returns the content of the current page.
func (s *Session) Body() (string, error) {
	drv, err := s.Driver()
	if err != nil {
		return "", err
	}
	return drv.Body(), nil
}

// CurrentURL returns the URL of the current page.
func (s *Session) CurrentURL() (string, error) {
	drv, err := s.Driver()
	if err != nil {
		return "", err
	}
	return drv.CurrentURL(), nil
}

// Reset clears the driver state. Sessions whose driver was never used
// have nothing to reset.
func (s *Session) Reset() error {
	s.mu.Lock()
	drv := s.driver
	s.mu.Unlock()

	if r, ok := drv.(api.Resetter); ok {
		if err := r.Reset(); err != nil {
			return fmt.Errorf("resetting %q driver: %w", s.driverName, err)
		}
	}
	return nil
}

// SavePage writes the current page into the configured save path and
// returns where it was saved. An empty name gets a timestamped default.
func (s *Session) SavePage(ctx context.Context, name string) (string, error) {
	body, err := s.Body()
	if err != nil {
		return "", err
	}

	path := storage.PagePath(s.config.SavePath(), name, s.now())
	if err := s.persister.Persist(ctx, path, strings.NewReader(body)); err != nil {
		return "", fmt.Errorf("saving page: %w", err)
	}
	return path, nil
}
