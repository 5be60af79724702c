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

// Package k6ext carries helpers for working with k6 internals.
package k6ext

import (
	"context"

	"github.com/dop251/goja"

	k6modules "go.k6.io/k6/js/modules"
)

type ctxKey int

const ctxKeyVU ctxKey = iota

// WithVU returns a new context with the given VU attached.
func WithVU(ctx context.Context, vu k6modules.VU) context.Context {
	return context.WithValue(ctx, ctxKeyVU, vu)
}

// GetVU returns the VU attached to ctx, or nil.
func GetVU(ctx context.Context) k6modules.VU {
	v := ctx.Value(ctxKeyVU)
	if vu, ok := v.(k6modules.VU); ok {
		return vu
	}
	return nil
}

// Runtime returns the JS runtime of the VU attached to ctx, or nil.
func Runtime(ctx context.Context) *goja.Runtime {
	vu := GetVU(ctx)
	if vu == nil {
		return nil
	}
	return vu.Runtime()
}
