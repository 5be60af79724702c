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

package js

import (
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dop251/goja"

	"github.com/AdrianNowik/capybara"
	"github.com/AdrianNowik/capybara/api"

	k6common "go.k6.io/k6/js/common"
)

// configProxy is the object configure callbacks receive. Known settings
// are properties. Any other name is a method forwarded to the top-level
// API, which warns that the call is deprecated.
type configProxy struct {
	rt  *goja.Runtime
	cfg *capybara.Configurator
}

var _ goja.DynamicObject = &configProxy{}

var configKeys = []string{
	"waitTime", "appHost", "defaultHost", "server", "reuseServer",
	"runServer", "defaultDriver", "serverHost", "serverPort", "savePath",
}

// objectBuiltins are left to Object.prototype so the proxy still
// stringifies and converts like a plain object.
var objectBuiltins = map[string]bool{
	"constructor":          true,
	"hasOwnProperty":       true,
	"isPrototypeOf":        true,
	"propertyIsEnumerable": true,
	"toLocaleString":       true,
	"toString":             true,
	"valueOf":              true,
	"__proto__":            true,
	"__defineGetter__":     true,
	"__defineSetter__":     true,
	"__lookupGetter__":     true,
	"__lookupSetter__":     true,
}

func (p *configProxy) Get(key string) goja.Value {
	config := p.cfg.Config()

	switch key {
	case "waitTime":
		return p.rt.ToValue(config.WaitTime().Milliseconds())
	case "appHost":
		return nullStringValue(p.rt, config.AppHost())
	case "defaultHost":
		return nullStringValue(p.rt, config.DefaultHost())
	case "server":
		return p.rt.ToValue(config.ServerName())
	case "reuseServer":
		return p.rt.ToValue(config.ReuseServer())
	case "runServer":
		return p.rt.ToValue(config.RunServer())
	case "defaultDriver":
		return p.rt.ToValue(config.DefaultDriver())
	case "serverHost":
		return p.rt.ToValue(config.ServerHost())
	case "serverPort":
		return p.rt.ToValue(config.ServerPort())
	case "savePath":
		return p.rt.ToValue(config.SavePath())
	}
	if objectBuiltins[key] {
		return nil
	}

	return p.rt.ToValue(func(call goja.FunctionCall) goja.Value {
		args, err := p.forwardArgs(key, call.Arguments)
		if err == nil {
			err = p.cfg.Forward(upperFirst(key), args...)
		}
		if err != nil {
			k6common.Throw(p.rt, err)
		}
		return goja.Undefined()
	})
}

// forwardArgs exports call arguments, turning a driver factory function
// into something the top-level API accepts.
func (p *configProxy) forwardArgs(method string, gargs []goja.Value) ([]interface{}, error) {
	args := exportArgs(gargs)
	if method == "registerDriver" && len(gargs) == 2 {
		f, err := jsDriverFactory(p.rt, gargs[1])
		if err != nil {
			return nil, err
		}
		args[1] = f
	}
	return args, nil
}

func (p *configProxy) Set(key string, val goja.Value) bool {
	if err := p.set(key, val); err != nil {
		k6common.Throw(p.rt, err)
	}
	return true
}

func (p *configProxy) set(key string, val goja.Value) error {
	switch key {
	case "waitTime":
		p.cfg.SetWaitTime(time.Duration(val.ToInteger()) * time.Millisecond)
	case "appHost":
		return p.cfg.SetAppHost(nullStringArg(val)) //nolint:wrapcheck
	case "defaultHost":
		return p.cfg.SetDefaultHost(nullStringArg(val)) //nolint:wrapcheck
	case "server":
		return p.setServer(val)
	case "reuseServer":
		p.cfg.SetReuseServer(val.ToBoolean())
	case "runServer":
		p.cfg.SetRunServer(val.ToBoolean())
	case "defaultDriver":
		p.cfg.SetDefaultDriver(val.String())
	case "serverHost":
		p.cfg.SetServerHost(val.String())
	case "serverPort":
		p.cfg.SetServerPort(int(val.ToInteger()))
	case "savePath":
		p.cfg.SetSavePath(val.String())
	default:
		return errArgType(key, "one of the configuration settings", val)
	}
	return nil
}

// setServer accepts a server name, or a [name, options] pair.
func (p *configProxy) setServer(val goja.Value) error {
	switch v := val.Export().(type) {
	case string:
		p.cfg.SetServer(v, nil)
	case []interface{}:
		if len(v) == 0 || len(v) > 2 {
			return errArgType("server", "a name or a [name, options] pair", val)
		}
		name, ok := v[0].(string)
		if !ok {
			return errArgType("server name", "a string", val)
		}
		var opts api.ServerOptions
		if len(v) == 2 && v[1] != nil {
			m, ok := v[1].(map[string]interface{})
			if !ok {
				return errArgType("server options", "an object", val)
			}
			opts = serverOptions(m)
		}
		p.cfg.SetServer(name, opts)
	default:
		return errArgType("server", "a name or a [name, options] pair", val)
	}
	return nil
}

// serverOptions converts script numbers to Go ints where they are whole,
// since server option structs use int fields.
func serverOptions(m map[string]interface{}) api.ServerOptions {
	opts := make(api.ServerOptions, len(m))
	for k, v := range m {
		switch n := v.(type) {
		case int64:
			opts[k] = int(n)
		case float64:
			if n == float64(int(n)) {
				opts[k] = int(n)
				continue
			}
			opts[k] = n
		default:
			opts[k] = v
		}
	}
	return opts
}

// Has reports settings and forwardable methods. Unknown names still
// resolve to a forwarding function that raises an undefined method error.
func (p *configProxy) Has(key string) bool {
	for _, k := range configKeys {
		if k == key {
			return true
		}
	}
	return p.cfg.CanForward(upperFirst(key))
}

func (p *configProxy) Delete(string) bool { return false }

func (p *configProxy) Keys() []string {
	return append([]string(nil), configKeys...)
}

func upperFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
