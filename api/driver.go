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
)

// Driver is the public interface of a session driver.
// A driver loads pages of the application under test and keeps
// the last loaded content around for inspection.
type Driver interface {
	Visit(ctx context.Context, url string) error
	Body() string
	CurrentURL() string
}

// ServerDriver is implemented by drivers that can only reach the
// application through a running server.
type ServerDriver interface {
	Driver
	NeedsServer() bool
}

// Resetter is implemented by drivers that can drop their state
// between tests.
type Resetter interface {
	Reset() error
}

// DriverFactory builds a new driver for the given application.
type DriverFactory func(app http.Handler) (Driver, error)
