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
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/guregu/null.v3"
	"gopkg.in/yaml.v3"

	"github.com/AdrianNowik/capybara/api"
)

// envSettings lists the environment variables LoadEnv understands.
type envSettings struct {
	WaitTime      time.Duration `env:"CAPYBARA_WAIT_TIME"`
	AppHost       string        `env:"CAPYBARA_APP_HOST"`
	DefaultHost   string        `env:"CAPYBARA_DEFAULT_HOST"`
	Server        string        `env:"CAPYBARA_SERVER"`
	ReuseServer   bool          `env:"CAPYBARA_REUSE_SERVER"`
	RunServer     bool          `env:"CAPYBARA_RUN_SERVER"`
	DefaultDriver string        `env:"CAPYBARA_DEFAULT_DRIVER"`
	ServerHost    string        `env:"CAPYBARA_SERVER_HOST"`
	ServerPort    int           `env:"CAPYBARA_SERVER_PORT"`
	SavePath      string        `env:"CAPYBARA_SAVE_PATH"`
}

// LoadEnv overrides the settings with the CAPYBARA_* variables found in
// environ. A nil environ reads the process environment. Variables that are
// not set leave the current value untouched.
func (c *Config) LoadEnv(environ map[string]string) error {
	name, opts := c.Server()
	s := envSettings{
		WaitTime:      c.WaitTime(),
		AppHost:       c.AppHost().String,
		DefaultHost:   c.DefaultHost().String,
		Server:        name,
		ReuseServer:   c.ReuseServer(),
		RunServer:     c.RunServer(),
		DefaultDriver: c.DefaultDriver(),
		ServerHost:    c.ServerHost(),
		ServerPort:    c.ServerPort(),
		SavePath:      c.SavePath(),
	}
	if err := env.ParseWithOptions(&s, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	if err := c.SetAppHost(null.NewString(s.AppHost, s.AppHost != "")); err != nil {
		return err
	}
	if err := c.SetDefaultHost(null.NewString(s.DefaultHost, s.DefaultHost != "")); err != nil {
		return err
	}
	if s.Server != name {
		opts = api.ServerOptions{}
	}
	c.SetWaitTime(s.WaitTime)
	c.SetServer(s.Server, opts)
	c.SetReuseServer(s.ReuseServer)
	c.SetRunServer(s.RunServer)
	c.SetDefaultDriver(s.DefaultDriver)
	c.SetServerHost(s.ServerHost)
	c.SetServerPort(s.ServerPort)
	c.SetSavePath(s.SavePath)

	return nil
}

// fileSettings is the YAML layout read by LoadFile.
type fileSettings struct {
	WaitTime      *time.Duration    `yaml:"wait_time"`
	AppHost       *string           `yaml:"app_host"`
	DefaultHost   *string           `yaml:"default_host"`
	Server        *string           `yaml:"server"`
	ServerOptions api.ServerOptions `yaml:"server_options"`
	ReuseServer   *bool             `yaml:"reuse_server"`
	RunServer     *bool             `yaml:"run_server"`
	DefaultDriver *string           `yaml:"default_driver"`
	ServerHost    *string           `yaml:"server_host"`
	ServerPort    *int              `yaml:"server_port"`
	SavePath      *string           `yaml:"save_path"`
}

// LoadFile applies the settings found in the YAML file at path.
// Keys missing from the file leave the current value untouched.
func (c *Config) LoadFile(path string) error {
	bb, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("reading config file %q: %w", path, err)
	}

	var s fileSettings
	if err := yaml.Unmarshal(bb, &s); err != nil {
		return fmt.Errorf("decoding config file %q: %w", path, err)
	}

	if s.AppHost != nil {
		if err := c.SetAppHost(null.StringFrom(*s.AppHost)); err != nil {
			return fmt.Errorf("config file %q: %w", path, err)
		}
	}
	if s.DefaultHost != nil {
		if err := c.SetDefaultHost(null.StringFrom(*s.DefaultHost)); err != nil {
			return fmt.Errorf("config file %q: %w", path, err)
		}
	}
	if s.WaitTime != nil {
		c.SetWaitTime(*s.WaitTime)
	}
	switch {
	case s.Server != nil:
		c.SetServer(*s.Server, s.ServerOptions)
	case s.ServerOptions != nil:
		c.SetServer(c.ServerName(), s.ServerOptions)
	}
	if s.ReuseServer != nil {
		c.SetReuseServer(*s.ReuseServer)
	}
	if s.RunServer != nil {
		c.SetRunServer(*s.RunServer)
	}
	if s.DefaultDriver != nil {
		c.SetDefaultDriver(*s.DefaultDriver)
	}
	if s.ServerHost != nil {
		c.SetServerHost(*s.ServerHost)
	}
	if s.ServerPort != nil {
		c.SetServerPort(*s.ServerPort)
	}
	if s.SavePath != nil {
		c.SetSavePath(*s.SavePath)
	}

	return nil
}
