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

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
)

// H2C returns a factory for the HTTP/2 cleartext backend.
// It also accepts plain HTTP/1.1 requests.
func H2C(logger *common.Logger) api.ServerFactory {
	return func(app http.Handler, port int, host null.String, opts api.ServerOptions) (api.Server, error) {
		no, err := translateOptions(port, host, opts)
		if err != nil {
			return nil, err
		}
		h2s := &http2.Server{
			MaxConcurrentStreams: uint32(no.MaxConcurrentStreams),
		}
		p, err := listenAndServe(no, logger, func(h http.Handler) http.Handler {
			return h2c.NewHandler(h, h2s)
		}, app)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}
