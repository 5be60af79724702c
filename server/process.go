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

// Package server starts local servers hosting the application under test.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/AdrianNowik/capybara/common"
)

// Process is a running local server.
type Process struct {
	id   string
	host string
	port int

	srv      *http.Server
	done     chan struct{}
	doneOnce sync.Once

	// closed when the server is shut down
	closers []io.Closer

	shutdownOnce sync.Once
	shutdownErr  error

	logger *common.Logger
}

// serve starts serving handler on ln in the background.
// It returns once the process is registered.
func serve(ln net.Listener, srv *http.Server, logger *common.Logger, closers ...io.Closer) *Process {
	addr, _ := ln.Addr().(*net.TCPAddr)
	p := &Process{
		id:      uuid.NewString(),
		srv:     srv,
		done:    make(chan struct{}),
		closers: closers,
		logger:  logger,
	}
	if addr != nil {
		p.host = addr.IP.String()
		p.port = addr.Port
	}

	register(logger, p)

	go func() {
		defer p.markDone()

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server:Serve", "server %s unexpectedly ended: %v", p.id, err)
		}
	}()

	return p
}

// ID returns the unique server ID.
func (p *Process) ID() string {
	return p.id
}

// Host returns the host the server listens on.
func (p *Process) Host() string {
	return p.host
}

// Port returns the port the server listens on.
func (p *Process) Port() int {
	return p.port
}

// URL returns the base URL of the server.
func (p *Process) URL() string {
	return "http://" + net.JoinHostPort(p.host, strconv.Itoa(p.port))
}

// Done is closed once the server stopped serving or started shutting down.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

func (p *Process) markDone() {
	p.doneOnce.Do(func() { close(p.done) })
}

// Shutdown gracefully stops the server. Only the first call does any work.
func (p *Process) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.logger.Debugf("Server:Shutdown", "shutting down server %s", p.id)

		p.markDone()
		unregister(p)
		if err := p.srv.Shutdown(ctx); err != nil {
			p.shutdownErr = fmt.Errorf("shutting down server %s: %w", p.id, err)
		}
		for _, c := range p.closers {
			_ = c.Close()
		}
	})
	return p.shutdownErr
}

// close stops the server right away, without waiting for connections.
func (p *Process) close() {
	p.shutdownOnce.Do(func() {
		p.markDone()
		_ = p.srv.Close()
		for _, c := range p.closers {
			_ = c.Close()
		}
	})
}
