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

package server

import (
	"net/http"

	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
)

// Names of the built-in servers.
const (
	NameDefault = "default"
	NameHTTP    = "http"
	NameH2C     = "h2c"
)

// RunDefault is the fallback runner: it serves app silently on the default
// server host and the given port.
func RunDefault(app http.Handler, port int, logger *common.Logger) (api.Server, error) {
	p, err := runHTTP(app, nativeOptions{
		Host:   common.DefaultServerHost,
		Port:   port,
		Silent: true,
	}, logger)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Builtins returns the built-in server factories keyed by name.
func Builtins(logger *common.Logger) map[string]api.ServerFactory {
	return map[string]api.ServerFactory{
		NameDefault: func(app http.Handler, port int, _ null.String, _ api.ServerOptions) (api.Server, error) {
			return RunDefault(app, port, logger)
		},
		NameHTTP: HTTP(logger),
		NameH2C:  H2C(logger),
	}
}
