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
	"fmt"

	"github.com/dop251/goja"
	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara"
	"github.com/AdrianNowik/capybara/k6ext"
	"github.com/AdrianNowik/capybara/session"

	k6common "go.k6.io/k6/js/common"
)

// mapping is a type for mapping our module API to goja.
type mapping = map[string]interface{}

// mapCapybara to the JS module.
func mapCapybara(vu moduleVU, c *capybara.Capybara) mapping {
	rt := vu.Runtime()

	return mapping{
		"version": version,
		"configure": func(fn goja.Value) {
			callable, ok := goja.AssertFunction(fn)
			if !ok {
				k6ext.Panic(vu.Context(), "configure expects a function, got %s", fn)
			}
			err := c.Configure(func(cfg *capybara.Configurator) error {
				obj := rt.NewDynamicObject(&configProxy{rt: rt, cfg: cfg})
				_, err := callable(goja.Undefined(), obj)
				return err //nolint:wrapcheck
			})
			if err != nil {
				k6common.Throw(rt, err)
			}
		},
		"registerDriver": func(name string, factory goja.Value) error {
			f, err := jsDriverFactory(rt, factory)
			if err != nil {
				return err
			}
			c.RegisterDriver(name, f)
			return nil
		},
		"newSession": func(driver string) mapping {
			return mapSession(vu, c.NewSession(driver, c.App()))
		},
		"currentSession": func() mapping {
			return mapSession(vu, c.CurrentSession())
		},
		"resetSessions": c.ResetSessions,
		"drivers":       func() []string { return c.Drivers().Names() },
		"servers":       func() []string { return c.Servers().Names() },
		"waitTime":      func() int64 { return c.Config().WaitTime().Milliseconds() },
		"appHost":       func() goja.Value { return nullStringValue(rt, c.Config().AppHost()) },
		"defaultHost":   func() goja.Value { return nullStringValue(rt, c.Config().DefaultHost()) },
		"shutdown": func() error {
			return c.Shutdown(vu.Context())
		},
	}
}

// mapSession to the JS module.
func mapSession(vu moduleVU, s *session.Session) mapping {
	return mapping{
		"id":         s.ID,
		"driverName": s.DriverName,
		"visit": func(path string) error {
			return s.Visit(vu.Context(), path)
		},
		"body":       s.Body,
		"currentURL": s.CurrentURL,
		"reset":      s.Reset,
		"savePage": func(name goja.Value) (string, error) {
			var n string
			if gojaValueExists(name) {
				n = name.String()
			}
			return s.SavePage(vu.Context(), n)
		},
	}
}

func nullStringValue(rt *goja.Runtime, s null.String) goja.Value {
	if !s.Valid {
		return goja.Null()
	}
	return rt.ToValue(s.String)
}

// gojaValueExists returns true if a given value is not nil and exists
// (defined and not null) in the goja runtime.
func gojaValueExists(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}

// exportArgs returns a slice of exported goja values.
func exportArgs(gargs []goja.Value) []interface{} {
	args := make([]interface{}, 0, len(gargs))
	for _, garg := range gargs {
		if !gojaValueExists(garg) {
			args = append(args, nil)
			continue
		}
		args = append(args, garg.Export())
	}
	return args
}

func nullStringArg(v goja.Value) null.String {
	if !gojaValueExists(v) {
		return null.String{}
	}
	return null.StringFrom(v.String())
}

func errArgType(name, want string, v goja.Value) error {
	return fmt.Errorf("%s must be %s, got %s", name, want, v)
}
