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

// Package capybara is the entry point of the framework. It owns the
// configuration and the driver and server registries, and builds sessions
// wired to them.
package capybara

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
	"github.com/AdrianNowik/capybara/driver/rack"
	"github.com/AdrianNowik/capybara/driver/remote"
	"github.com/AdrianNowik/capybara/registry"
	"github.com/AdrianNowik/capybara/server"
	"github.com/AdrianNowik/capybara/session"
)

// ServerRunner starts app on port with the selected server and its options.
type ServerRunner func(app http.Handler, port int) (api.Server, error)

// Capybara holds the framework state. Tests that need isolation create
// their own instance or call Reset between cases.
type Capybara struct {
	config  *common.Config
	drivers *registry.Drivers
	servers *registry.Servers
	logger  *common.Logger
	warner  common.Warner

	mu       sync.Mutex
	app      http.Handler
	sessions map[string]*session.Session
}

// Option configures a Capybara instance.
type Option func(*Capybara)

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) Option {
	return func(c *Capybara) { c.logger = logger }
}

// WithWarner sets where deprecation warnings go.
func WithWarner(w common.Warner) Option {
	return func(c *Capybara) { c.warner = w }
}

// WithConfig uses config instead of a default configuration.
func WithConfig(config *common.Config) Option {
	return func(c *Capybara) { c.config = config }
}

// New returns a Capybara instance with the built-in drivers and servers
// registered.
func New(opts ...Option) *Capybara {
	c := &Capybara{
		sessions: make(map[string]*session.Session),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = common.NewNullLogger()
	}
	if c.config == nil {
		c.config = common.NewConfig()
	}
	if c.warner == nil {
		c.warner = common.NewConsoleWarner(nil, c.logger)
	}

	c.drivers = registry.NewDrivers(c.logger, map[string]api.DriverFactory{
		rack.Name:   rack.Factory,
		remote.Name: remote.Factory,
	})
	c.servers = registry.NewServers(c.config, c.logger, server.Builtins(c.logger))

	return c
}

// Config returns the configuration.
func (c *Capybara) Config() *common.Config { return c.config }

// Drivers returns the driver registry.
func (c *Capybara) Drivers() *registry.Drivers { return c.drivers }

// Servers returns the server registry.
func (c *Capybara) Servers() *registry.Servers { return c.servers }

// Logger returns the logger.
func (c *Capybara) Logger() *common.Logger { return c.logger }

// RegisterDriver registers a driver factory under name.
func (c *Capybara) RegisterDriver(name string, factory api.DriverFactory) {
	c.drivers.Register(name, factory)
}

// RegisterServer registers a server factory under name.
func (c *Capybara) RegisterServer(name string, factory api.ServerFactory) {
	c.servers.Register(name, factory)
}

// SetServer selects the server used to host the application.
func (c *Capybara) SetServer(name string, opts api.ServerOptions) {
	c.config.SetServer(name, opts)
}

// Server returns a runner for the selected server, bound to the selected
// server options.
func (c *Capybara) Server() (ServerRunner, error) {
	name, opts := c.config.Server()
	factory, err := c.servers.Factory(name)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return func(app http.Handler, port int) (api.Server, error) {
		return factory(app, port, null.String{}, opts)
	}, nil
}

// RunDefaultServer serves app on port with the fallback server.
func (c *Capybara) RunDefaultServer(app http.Handler, port int) (api.Server, error) {
	return server.RunDefault(app, port, c.logger) //nolint:wrapcheck
}

// SetApp sets the application used by CurrentSession.
func (c *Capybara) SetApp(app http.Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.app = app
}

// App returns the application used by CurrentSession.
func (c *Capybara) App() http.Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.app
}

// NewSession returns a session for the named driver and app.
// The driver name is only looked up when the session needs its driver.
func (c *Capybara) NewSession(driverName string, app http.Handler) *session.Session {
	return session.New(driverName, app, c.drivers,
		session.WithConfig(c.config),
		session.WithServers(c.servers),
		session.WithLogger(c.logger),
	)
}

// CurrentSession returns the pooled session for the default driver and the
// current app, creating it if needed.
func (c *Capybara) CurrentSession() *session.Session {
	name := c.config.DefaultDriver()

	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.sessions[name]; ok {
		return s
	}
	s := c.NewSession(name, c.app)
	c.sessions[name] = s
	return s
}

// ResetSessions resets every pooled session.
func (c *Capybara) ResetSessions() error {
	c.mu.Lock()
	sessions := make([]*session.Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		sessions = append(sessions, s)
	}
	c.mu.Unlock()

	for _, s := range sessions {
		if err := s.Reset(); err != nil {
			return errors.Wrapf(err, "resetting session %s", s.ID())
		}
	}
	return nil
}

// Shutdown stops every server the instance started.
func (c *Capybara) Shutdown(ctx context.Context) error {
	return c.servers.Shutdown(ctx) //nolint:wrapcheck
}

// Reset stops the servers, drops pooled sessions and user registrations,
// and restores the default configuration.
func (c *Capybara) Reset(ctx context.Context) error {
	err := c.Shutdown(ctx)

	c.mu.Lock()
	c.sessions = make(map[string]*session.Session)
	c.app = nil
	c.mu.Unlock()

	c.drivers.Reset()
	c.servers.Reset()
	c.config.Reset()

	return err
}
