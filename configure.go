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

package capybara

import (
	"fmt"
	"net/http"
	"time"

	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
)

// Configurator is handed to Configure blocks. It exposes the configuration
// setters, and forwards a few top-level calls with a deprecation warning.
type Configurator struct {
	c *Capybara
}

// Configure runs fn with a Configurator bound to c.
// An error returned by fn is returned unchanged.
func (c *Capybara) Configure(fn func(*Configurator) error) error {
	return fn(&Configurator{c: c})
}

// Config returns the configuration the setters change.
func (cfg *Configurator) Config() *common.Config {
	return cfg.c.config
}

// SetWaitTime sets how long finders wait for elements.
func (cfg *Configurator) SetWaitTime(d time.Duration) {
	cfg.c.config.SetWaitTime(d)
}

// SetAppHost sets the host relative visits go to. A null host clears it.
func (cfg *Configurator) SetAppHost(host null.String) error {
	return cfg.c.config.SetAppHost(host) //nolint:wrapcheck
}

// SetDefaultHost sets the host used when no server and no app host apply.
func (cfg *Configurator) SetDefaultHost(host null.String) error {
	return cfg.c.config.SetDefaultHost(host) //nolint:wrapcheck
}

// SetServer selects the server and its options.
func (cfg *Configurator) SetServer(name string, opts api.ServerOptions) {
	cfg.c.config.SetServer(name, opts)
}

// SetReuseServer sets whether matching servers are shared.
func (cfg *Configurator) SetReuseServer(reuse bool) {
	cfg.c.config.SetReuseServer(reuse)
}

// SetRunServer sets whether sessions boot a server for drivers needing one.
func (cfg *Configurator) SetRunServer(run bool) {
	cfg.c.config.SetRunServer(run)
}

// SetDefaultDriver sets the driver used by the current session.
func (cfg *Configurator) SetDefaultDriver(name string) {
	cfg.c.config.SetDefaultDriver(name)
}

// SetServerHost sets the interface booted servers bind to.
func (cfg *Configurator) SetServerHost(host string) {
	cfg.c.config.SetServerHost(host)
}

// SetServerPort sets the port booted servers listen on. Zero picks one.
func (cfg *Configurator) SetServerPort(port int) {
	cfg.c.config.SetServerPort(port)
}

// SetSavePath sets the directory saved pages go to.
func (cfg *Configurator) SetSavePath(path string) {
	cfg.c.config.SetSavePath(path)
}

type forwardFunc func(c *Capybara, args []any) error

// forwardable lists the top-level calls a Configure block may still make.
var forwardable = map[string]forwardFunc{
	"RegisterDriver": func(c *Capybara, args []any) error {
		if err := wantArgs("RegisterDriver", args, 2); err != nil {
			return err
		}
		name, ok := args[0].(string)
		if !ok {
			return argError("RegisterDriver", 0, "string", args[0])
		}
		var factory api.DriverFactory
		switch f := args[1].(type) {
		case api.DriverFactory:
			factory = f
		case func(http.Handler) (api.Driver, error):
			factory = f
		default:
			return argError("RegisterDriver", 1, "api.DriverFactory", args[1])
		}
		c.RegisterDriver(name, factory)
		return nil
	},
	"RegisterServer": func(c *Capybara, args []any) error {
		if err := wantArgs("RegisterServer", args, 2); err != nil {
			return err
		}
		name, ok := args[0].(string)
		if !ok {
			return argError("RegisterServer", 0, "string", args[0])
		}
		var factory api.ServerFactory
		switch f := args[1].(type) {
		case api.ServerFactory:
			factory = f
		case func(http.Handler, int, null.String, api.ServerOptions) (api.Server, error):
			factory = f
		default:
			return argError("RegisterServer", 1, "api.ServerFactory", args[1])
		}
		c.RegisterServer(name, factory)
		return nil
	},
	"ResetSessions": func(c *Capybara, args []any) error {
		if err := wantArgs("ResetSessions", args, 0); err != nil {
			return err
		}
		return c.ResetSessions()
	},
}

// CanForward reports whether Forward knows method.
func (cfg *Configurator) CanForward(method string) bool {
	_, ok := forwardable[method]
	return ok
}

// Forward calls the top-level method named method with args. Each call
// emits one deprecation warning. Methods the top level does not have
// return an *common.UnknownMethodError and warn nothing.
func (cfg *Configurator) Forward(method string, args ...any) error {
	fn, ok := forwardable[method]
	if !ok {
		return &common.UnknownMethodError{Method: method}
	}

	cfg.c.warner.Warn(fmt.Sprintf(
		"Calling %[1]s from Capybara.Configure is deprecated - "+
			"please call it on Capybara directly ( Capybara.%[1]s(...) )", method,
	))

	return fn(cfg.c, args)
}

func wantArgs(method string, args []any, n int) error {
	if len(args) != n {
		return fmt.Errorf("%s: wrong number of arguments (given %d, expected %d)", method, len(args), n)
	}
	return nil
}

func argError(method string, i int, want string, got any) error {
	return fmt.Errorf("%s: argument %d must be %s, got %T", method, i, want, got)
}
