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

package k6ext

import (
	"context"
	"fmt"

	k6common "go.k6.io/k6/js/common"
)

// Panic throws a JS exception built from the formatted message on the
// runtime of the VU attached to ctx. Without a VU it panics with the error.
func Panic(ctx context.Context, format string, a ...interface{}) {
	err := fmt.Errorf(format, a...)
	rt := Runtime(ctx)
	if rt == nil {
		panic(err)
	}
	k6common.Throw(rt, err)
}
