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
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
)

const readHeaderTimeout = 10 * time.Second

// HTTP returns a factory for the net/http backend.
func HTTP(logger *common.Logger) api.ServerFactory {
	return func(app http.Handler, port int, host null.String, opts api.ServerOptions) (api.Server, error) {
		no, err := translateOptions(port, host, opts)
		if err != nil {
			return nil, err
		}
		p, err := runHTTP(app, no, logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

func runHTTP(app http.Handler, opts nativeOptions, logger *common.Logger) (*Process, error) {
	return listenAndServe(opts, logger, func(h http.Handler) http.Handler { return h }, app)
}

// listenAndServe binds the listener synchronously, so address errors are
// returned to the caller, then serves wrap(app) in the background.
func listenAndServe(
	opts nativeOptions, logger *common.Logger, wrap func(http.Handler) http.Handler, app http.Handler,
) (*Process, error) {
	if app == nil {
		app = http.NotFoundHandler()
	}
	if logger == nil {
		logger = common.NewNullLogger()
	}

	addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	var (
		handler = app
		errLog  = log.New(io.Discard, "", 0)
		closers []io.Closer
	)
	if !opts.Silent {
		handler = accessLog(app, logger)
		w := logger.WriterLevel(logrus.ErrorLevel)
		errLog = log.New(w, "", 0)
		closers = append(closers, w)
	}

	srv := &http.Server{
		Handler:           wrap(handler),
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          errLog,
	}

	return serve(ln, srv, logger, closers...), nil
}

// accessLog logs every request served at debug level.
func accessLog(next http.Handler, logger *common.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debugf("Server:access", "%s %s %s in %s", r.Proto, r.Method, r.URL.RequestURI(), time.Since(start))
	})
}
