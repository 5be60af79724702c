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

package registry

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
)

// signature identifies servers that can stand in for each other
// when servers are reused.
type signature struct {
	name string
	port int
	host string
}

func (s signature) String() string {
	host := s.host
	if host == "" {
		host = "<nil>"
	}
	return s.name + "@" + host + ":" + strconv.Itoa(s.port)
}

func newSignature(name string, port int, host null.String) signature {
	s := signature{name: name, port: port}
	if host.Valid {
		s.host = host.String
	}
	return s
}

// Servers maps server names to server factories and keeps track of
// the servers it started.
type Servers struct {
	// mu also serializes Start so that reuse lookup and launch
	// happen as one step.
	mu       sync.Mutex
	builtins map[string]api.ServerFactory
	servers  map[string]api.ServerFactory
	running  map[signature]api.Server
	started  []api.Server

	config *common.Config
	logger *common.Logger
}

// NewServers returns a server registry holding the given built-in servers.
// Start reads the selected server options and the reuse flag from config.
func NewServers(
	config *common.Config, logger *common.Logger, builtins map[string]api.ServerFactory,
) *Servers {
	s := &Servers{
		builtins: make(map[string]api.ServerFactory, len(builtins)),
		running:  make(map[signature]api.Server),
		config:   config,
		logger:   logger,
	}
	for name, f := range builtins {
		s.builtins[name] = f
	}
	s.reset()
	return s
}

// Register the given server factory under name.
// A server already registered with the same name is replaced. Servers
// started with the old factory keep running and stay reusable.
func (s *Servers) Register(name string, factory api.ServerFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debugf("Servers:Register", "registered server %q", name)

	s.servers[name] = factory
}

// Factory returns the factory registered under name.
func (s *Servers) Factory(name string) (api.ServerFactory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.servers[name]
	if !ok {
		return nil, &common.ServerNotFoundError{Name: name}
	}
	return f, nil
}

// Names returns the registered server names in order.
func (s *Servers) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return sortedKeys(s.servers)
}

// Start starts app with the server registered under name, passing it the
// currently configured server options. When servers are reused and a server
// with the same name, port and host is still running, that server is
// returned instead. Servers that stopped on their own are never reused.
func (s *Servers) Start(name string, app http.Handler, port int, host null.String) (api.Server, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	factory, ok := s.servers[name]
	if !ok {
		return nil, &common.ServerNotFoundError{Name: name}
	}

	sig := newSignature(name, port, host)
	if s.config.ReuseServer() {
		if srv, ok := s.running[sig]; ok {
			if !api.Stopped(srv) {
				s.logger.Debugf("Servers:Start", "reusing server %s (%s)", sig, srv.ID())
				return srv, nil
			}
			s.logger.Debugf("Servers:Start", "dropping stopped server %s (%s)", sig, srv.ID())
			s.forget(srv)
		}
	}

	srv, err := factory(app, port, host, s.config.ServerOptions())
	if err != nil {
		return nil, errors.Wrapf(err, "starting %q server", name)
	}
	if srv == nil {
		return nil, errors.Errorf("starting %q server: factory returned no server", name)
	}

	s.logger.Debugf("Servers:Start", "started server %s (%s) at %s", sig, srv.ID(), srv.URL())

	s.running[sig] = srv
	s.started = append(s.started, srv)

	return srv, nil
}

// Stop shuts srv down and forgets it.
func (s *Servers) Stop(ctx context.Context, srv api.Server) error {
	s.mu.Lock()
	s.forget(srv)
	s.mu.Unlock()

	return srv.Shutdown(ctx) //nolint:wrapcheck
}

// Shutdown stops every server started by the registry.
// It returns the first error but tries to stop all of them.
func (s *Servers) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.started = nil
	s.running = make(map[signature]api.Server)
	s.mu.Unlock()

	var rerr error
	for _, srv := range started {
		if err := srv.Shutdown(ctx); err != nil && rerr == nil {
			rerr = errors.Wrapf(err, "stopping server %s", srv.ID())
		}
	}
	return rerr
}

// Reset drops the user registered servers. Running servers are not touched.
func (s *Servers) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
}

func (s *Servers) reset() {
	s.servers = make(map[string]api.ServerFactory, len(s.builtins))
	for name, f := range s.builtins {
		s.servers[name] = f
	}
}

func (s *Servers) forget(srv api.Server) {
	for sig, r := range s.running {
		if r.ID() == srv.ID() {
			delete(s.running, sig)
		}
	}
	for i, r := range s.started {
		if r.ID() == srv.ID() {
			s.started = append(s.started[:i], s.started[i+1:]...)
			break
		}
	}
}
