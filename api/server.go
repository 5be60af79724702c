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

package api

import (
	"context"
	"net/http"

	"gopkg.in/guregu/null.v3"
)

// Server is a handle to a running local server hosting an application.
type Server interface {
	ID() string
	Host() string
	Port() int
	URL() string
	// Done is closed once the server stopped, or started stopping, for
	// whatever reason.
	Done() <-chan struct{}
	Shutdown(ctx context.Context) error
}

// Stopped reports whether srv is done serving.
func Stopped(srv Server) bool {
	select {
	case <-srv.Done():
		return true
	default:
		return false
	}
}

// ServerOptions is a free-form options bag forwarded to a server factory.
type ServerOptions map[string]any

// Clone returns a shallow copy of the options.
func (o ServerOptions) Clone() ServerOptions {
	c := make(ServerOptions, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// ServerFactory starts a server for app on the given port and host.
// An invalid host lets the factory choose its own default.
type ServerFactory func(app http.Handler, port int, host null.String, opts ServerOptions) (Server, error)
