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
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is matched by every ConfigurationError.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDriverNotFound is matched by every DriverNotFoundError.
	ErrDriverNotFound = errors.New("driver not found")

	// ErrServerNotFound is matched by every ServerNotFoundError.
	ErrServerNotFound = errors.New("server not found")

	// ErrUnknownMethod is matched by every UnknownMethodError.
	ErrUnknownMethod = errors.New("unknown method")
)

// ConfigurationError is returned when a configuration value is rejected.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf(
		"capybara: %s should be set to a url (e.g. http://www.example.com), got %q",
		e.Field, e.Value)
}

// Is makes errors.Is(err, ErrInvalidConfiguration) work.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// DriverNotFoundError is returned when no driver is registered under Name.
type DriverNotFoundError struct {
	Name string
}

func (e *DriverNotFoundError) Error() string {
	return fmt.Sprintf("no driver called %q was found, available drivers can be registered with RegisterDriver", e.Name)
}

// Is makes errors.Is(err, ErrDriverNotFound) work.
func (e *DriverNotFoundError) Is(target error) bool {
	return target == ErrDriverNotFound
}

// ServerNotFoundError is returned when no server is registered under Name.
type ServerNotFoundError struct {
	Name string
}

func (e *ServerNotFoundError) Error() string {
	return fmt.Sprintf("no server called %q was found, available servers can be registered with RegisterServer", e.Name)
}

// Is makes errors.Is(err, ErrServerNotFound) work.
func (e *ServerNotFoundError) Is(target error) bool {
	return target == ErrServerNotFound
}

// UnknownMethodError is returned when a configure block forwards a method
// that the top-level API does not have.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("undefined method %q for the capybara configuration", e.Method)
}

// Is makes errors.Is(err, ErrUnknownMethod) work.
func (e *UnknownMethodError) Is(target error) bool {
	return target == ErrUnknownMethod
}
