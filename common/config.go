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

package common

import (
	"net/url"
	"sync"
	"time"

	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
)

const (
	DefaultWaitTime    = 2 * time.Second
	DefaultHost        = "http://www.example.com"
	DefaultServerName  = "default"
	DefaultDriverName  = "rack_test"
	DefaultServerHost  = "127.0.0.1"
	DefaultServerPort  = 0
	DefaultReuseServer = true
	DefaultRunServer   = true

	fieldAppHost     = "app_host"
	fieldDefaultHost = "default_host"
)

// Config stores the framework wide settings.
// The zero value is not usable, use NewConfig.
type Config struct {
	mu sync.RWMutex

	waitTime      time.Duration
	appHost       null.String
	defaultHost   null.String
	serverName    string
	serverOptions api.ServerOptions
	reuseServer   bool
	runServer     bool
	defaultDriver string
	serverHost    string
	serverPort    int
	savePath      string
}

// NewConfig creates a config holding the default settings.
func NewConfig() *Config {
	c := &Config{}
	c.reset()
	return c
}

// Reset restores the default settings.
func (c *Config) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Config) reset() {
	c.waitTime = DefaultWaitTime
	c.appHost = null.String{}
	c.defaultHost = null.StringFrom(DefaultHost)
	c.serverName = DefaultServerName
	c.serverOptions = api.ServerOptions{}
	c.reuseServer = DefaultReuseServer
	c.runServer = DefaultRunServer
	c.defaultDriver = DefaultDriverName
	c.serverHost = DefaultServerHost
	c.serverPort = DefaultServerPort
	c.savePath = ""
}

// WaitTime returns how long finders wait for content to appear.
func (c *Config) WaitTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.waitTime
}

func (c *Config) SetWaitTime(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waitTime = d
}

// AppHost returns the base URL sessions visit paths against.
func (c *Config) AppHost() null.String {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appHost
}

// SetAppHost sets the app host. A null value clears it.
func (c *Config) SetAppHost(host null.String) error {
	if err := validateHost(fieldAppHost, host); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appHost = host
	return nil
}

// DefaultHost returns the host used by drivers that do not need a server.
func (c *Config) DefaultHost() null.String {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultHost
}

// SetDefaultHost sets the default host. A null value clears it.
func (c *Config) SetDefaultHost(host null.String) error {
	if err := validateHost(fieldDefaultHost, host); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultHost = host
	return nil
}

// Server returns the selected server name and a copy of its options.
func (c *Config) Server() (string, api.ServerOptions) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverName, c.serverOptions.Clone()
}

// ServerName returns the selected server name.
func (c *Config) ServerName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverName
}

// ServerOptions returns a copy of the selected server options.
func (c *Config) ServerOptions() api.ServerOptions {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverOptions.Clone()
}

// SetServer selects the server used to host applications.
// The name is checked against the server registry when a server starts.
func (c *Config) SetServer(name string, opts api.ServerOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverName = name
	c.serverOptions = opts.Clone()
}

func (c *Config) ReuseServer() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reuseServer
}

func (c *Config) SetReuseServer(reuse bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reuseServer = reuse
}

// RunServer reports whether sessions boot a server for drivers that need one.
func (c *Config) RunServer() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runServer
}

func (c *Config) SetRunServer(run bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runServer = run
}

func (c *Config) DefaultDriver() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultDriver
}

func (c *Config) SetDefaultDriver(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultDriver = name
}

// ServerHost returns the host servers bind to.
func (c *Config) ServerHost() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverHost
}

func (c *Config) SetServerHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverHost = host
}

// ServerPort returns the port servers bind to, 0 picks a free one.
func (c *Config) ServerPort() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverPort
}

func (c *Config) SetServerPort(port int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.serverPort = port
}

// SavePath returns the directory saved pages are written into.
func (c *Config) SavePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.savePath
}

func (c *Config) SetSavePath(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.savePath = path
}

// validateHost checks that a non-null host is an absolute URL.
func validateHost(field string, host null.String) error {
	if !host.Valid {
		return nil
	}
	u, err := url.Parse(host.String)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ConfigurationError{Field: field, Value: host.String}
	}
	return nil
}
