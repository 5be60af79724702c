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
	"context"
	"sync"

	"github.com/AdrianNowik/capybara/common"
)

var (
	processRegister   = map[string]*Process{} //nolint:gochecknoglobals
	processRegisterMu = sync.Mutex{}          //nolint:gochecknoglobals
)

func register(logger *common.Logger, p *Process) {
	processRegisterMu.Lock()
	defer processRegisterMu.Unlock()

	logger.Debugf("Server:register", "registered server %s at %s", p.id, p.URL())

	processRegister[p.id] = p
}

func unregister(p *Process) {
	processRegisterMu.Lock()
	defer processRegisterMu.Unlock()

	delete(processRegister, p.id)
}

// Running returns the number of servers that have not been shut down.
func Running() int {
	processRegisterMu.Lock()
	defer processRegisterMu.Unlock()

	return len(processRegister)
}

// ForceShutdown should be called when the test run is aborting and the
// servers would otherwise outlive it. Servers are closed without waiting
// for in-flight requests.
func ForceShutdown(ctx context.Context) {
	processRegisterMu.Lock()
	procs := make([]*Process, 0, len(processRegister))
	for id, p := range processRegister {
		procs = append(procs, p)
		delete(processRegister, id)
	}
	processRegisterMu.Unlock()

	for _, p := range procs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		p.close()
	}
}
