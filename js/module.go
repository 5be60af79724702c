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

// Package js exposes capybara to k6 test scripts as k6/x/capybara.
package js

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/AdrianNowik/capybara"
	"github.com/AdrianNowik/capybara/common"
	"github.com/AdrianNowik/capybara/k6ext"

	k6common "go.k6.io/k6/js/common"
	k6modules "go.k6.io/k6/js/modules"
)

const version = "0.1.0"

type (
	// RootModule is the global module instance that will create module
	// instances for each VU.
	RootModule struct{}

	// ModuleInstance represents an instance of the JS module.
	ModuleInstance struct {
		vu  moduleVU
		cap *capybara.Capybara
		mod mapping
	}
)

// moduleVU carries module specific VU information.
type moduleVU struct {
	k6modules.VU
}

func (vu moduleVU) Context() context.Context {
	return k6ext.WithVU(vu.VU.Context(), vu.VU)
}

var (
	_ k6modules.Module   = &RootModule{}
	_ k6modules.Instance = &ModuleInstance{}
)

// New returns a pointer to a new RootModule instance.
func New() *RootModule {
	return &RootModule{}
}

// NewModuleInstance implements the k6modules.Module interface to return
// a new instance for each VU. Each VU gets its own configuration and
// registries, seeded from the CAPYBARA_* environment variables.
func (*RootModule) NewModuleInstance(vu k6modules.VU) k6modules.Instance {
	mvu := moduleVU{vu}
	logger := common.NewLogger(context.Background(), logrus.StandardLogger(), false, nil)

	c := capybara.New(capybara.WithLogger(logger))
	if err := c.Config().LoadEnv(nil); err != nil {
		k6common.Throw(vu.Runtime(), err)
	}

	return newModuleInstance(mvu, c)
}

func newModuleInstance(vu moduleVU, c *capybara.Capybara) *ModuleInstance {
	return &ModuleInstance{
		vu:  vu,
		cap: c,
		mod: mapCapybara(vu, c),
	}
}

// Exports returns the exports of the JS module so that it can be used in test
// scripts.
func (mi *ModuleInstance) Exports() k6modules.Exports {
	return k6modules.Exports{Default: mi.mod}
}
