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
	"fmt"
	"math"

	"dario.cat/mergo"
	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
)

// nativeOptions are the keyword options understood by the built-in backends.
// Other keys in the options bag are passed through and ignored.
type nativeOptions struct {
	Host                 string
	Port                 int
	Silent               bool
	MaxConcurrentStreams int
}

// translateOptions merges the options bag over the Host and Port arguments
// and decodes the result into the backend options. An invalid host binds to
// the default server host.
func translateOptions(port int, host null.String, opts api.ServerOptions) (nativeOptions, error) {
	merged := api.ServerOptions{
		"Host": common.DefaultServerHost,
		"Port": port,
	}
	if host.Valid {
		merged["Host"] = host.String
	}
	if err := mergo.Merge(&merged, opts, mergo.WithOverride); err != nil {
		return nativeOptions{}, fmt.Errorf("merging server options: %w", err)
	}

	var no nativeOptions
	if err := mergo.Map(&no, map[string]any(merged)); err != nil {
		return nativeOptions{}, fmt.Errorf("decoding server options: %w", err)
	}
	if no.Port < 0 {
		return nativeOptions{}, fmt.Errorf("invalid server port %d", no.Port)
	}
	if no.MaxConcurrentStreams < 0 || uint64(no.MaxConcurrentStreams) > math.MaxUint32 {
		return nativeOptions{}, fmt.Errorf("invalid max concurrent streams %d", no.MaxConcurrentStreams)
	}

	return no, nil
}
