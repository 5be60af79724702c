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

package js

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dop251/goja"

	"github.com/AdrianNowik/capybara/api"
)

// jsDriver is a driver implemented by a script object with visit, body
// and currentURL methods.
type jsDriver struct {
	rt  *goja.Runtime
	obj *goja.Object
}

var _ api.Driver = &jsDriver{}

// jsDriverFactory turns a script function returning a driver object into
// a driver factory. The function is called with no arguments.
func jsDriverFactory(rt *goja.Runtime, v goja.Value) (api.DriverFactory, error) {
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, errArgType("driver factory", "a function", v)
	}

	return func(http.Handler) (api.Driver, error) {
		res, err := fn(goja.Undefined())
		if err != nil {
			return nil, fmt.Errorf("calling driver factory: %w", err)
		}
		if !gojaValueExists(res) {
			return nil, fmt.Errorf("driver factory returned %s", res)
		}
		return &jsDriver{rt: rt, obj: res.ToObject(rt)}, nil
	}, nil
}

func (d *jsDriver) call(method string, args ...interface{}) (goja.Value, error) {
	fn, ok := goja.AssertFunction(d.obj.Get(method))
	if !ok {
		return nil, fmt.Errorf("driver has no %s method", method)
	}
	vals := make([]goja.Value, 0, len(args))
	for _, a := range args {
		vals = append(vals, d.rt.ToValue(a))
	}
	return fn(d.obj, vals...) //nolint:wrapcheck
}

func (d *jsDriver) Visit(_ context.Context, url string) error {
	_, err := d.call("visit", url)
	return err
}

func (d *jsDriver) Body() string {
	return d.str("body")
}

func (d *jsDriver) CurrentURL() string {
	return d.str("currentURL")
}

// Reset calls the reset method if the driver has one.
func (d *jsDriver) Reset() error {
	if _, ok := goja.AssertFunction(d.obj.Get("reset")); !ok {
		return nil
	}
	_, err := d.call("reset")
	return err
}

func (d *jsDriver) str(method string) string {
	v, err := d.call(method)
	if err != nil || !gojaValueExists(v) {
		return ""
	}
	return v.String()
}
