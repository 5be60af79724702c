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

// Package registry keeps the named driver and server factories.
package registry

import (
	"net/http"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
)

// Drivers maps driver names to driver factories.
type Drivers struct {
	mu       sync.RWMutex
	builtins map[string]api.DriverFactory
	drivers  map[string]api.DriverFactory
	logger   *common.Logger
}

// NewDrivers returns a driver registry holding the given built-in drivers.
// Built-ins survive Reset.
func NewDrivers(logger *common.Logger, builtins map[string]api.DriverFactory) *Drivers {
	d := &Drivers{
		builtins: make(map[string]api.DriverFactory, len(builtins)),
		logger:   logger,
	}
	for name, f := range builtins {
		d.builtins[name] = f
	}
	d.reset()
	return d
}

// Register the given driver factory under name.
// A driver already registered with the same name is replaced.
func (d *Drivers) Register(name string, factory api.DriverFactory) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Debugf("Drivers:Register", "registered driver %q", name)

	d.drivers[name] = factory
}

// Resolve builds a new driver for app with the factory registered under name.
// The factory runs on every call.
func (d *Drivers) Resolve(name string, app http.Handler) (api.Driver, error) {
	d.mu.RLock()
	factory, ok := d.drivers[name]
	d.mu.RUnlock()

	if !ok {
		return nil, &common.DriverNotFoundError{Name: name}
	}

	drv, err := factory(app)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %q driver", name)
	}

	d.logger.Debugf("Drivers:Resolve", "created driver %q", name)

	return drv, nil
}

// Has reports whether a driver is registered under name.
func (d *Drivers) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, ok := d.drivers[name]
	return ok
}

// Names returns the registered driver names in order.
func (d *Drivers) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return sortedKeys(d.drivers)
}

// Reset drops the user registered drivers.
func (d *Drivers) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reset()
}

func (d *Drivers) reset() {
	d.drivers = make(map[string]api.DriverFactory, len(d.builtins))
	for name, f := range d.builtins {
		d.drivers[name] = f
	}
}

func sortedKeys[T any](m map[string]T) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
