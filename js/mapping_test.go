package js

import (
	"context"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara"
	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"

	k6modulestest "go.k6.io/k6/js/modulestest"
)

const fakeDriver = `
function fakeDriver(tag) {
	return function() {
		var url = "";
		return {
			visit: function(u) { url = u; },
			body: function() { return tag + ":" + url; },
			currentURL: function() { return url; },
			reset: function() { url = ""; },
		};
	};
}
`

type testModule struct {
	rt  *goja.Runtime
	cap *capybara.Capybara
	rec *common.WarningRecorder
}

func newTestModule(t *testing.T) *testModule {
	t.Helper()

	rt := goja.New()
	vu := &k6modulestest.VU{
		RuntimeField: rt,
		CtxField:     context.Background(),
	}
	rec := &common.WarningRecorder{}
	c := capybara.New(capybara.WithWarner(rec))
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })

	mi := newModuleInstance(moduleVU{vu}, c)
	require.NoError(t, rt.Set("capybara", mi.Exports().Default))
	_, err := rt.RunString(fakeDriver)
	require.NoError(t, err)

	return &testModule{rt: rt, cap: c, rec: rec}
}

func (m *testModule) run(t *testing.T, script string) goja.Value {
	t.Helper()

	v, err := m.rt.RunString(script)
	require.NoError(t, err)
	return v
}

func TestModuleSession(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	v := m.run(t, `
		capybara.registerDriver("fake", fakeDriver("fake"));
		var s = capybara.newSession("fake");
		s.visit("/foo");
		[s.driverName(), s.body(), s.currentURL()];
	`)

	var got []string
	require.NoError(t, m.rt.ExportTo(v, &got))
	assert.Equal(t, []string{"fake", "fake:http://www.example.com/foo", "http://www.example.com/foo"}, got)
	assert.Empty(t, m.rec.Messages())
}

func TestModuleSessionReset(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	v := m.run(t, `
		capybara.registerDriver("fake", fakeDriver("fake"));
		var s = capybara.newSession("fake");
		s.visit("/foo");
		s.reset();
		s.currentURL();
	`)
	assert.Equal(t, "", v.String())
}

func TestModuleUnknownDriver(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	_, err := m.rt.RunString(`capybara.newSession("quox").visit("/")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"quox"`)
}

func TestModuleConfigure(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	v := m.run(t, `
		var before;
		capybara.configure(function(c) {
			before = c.waitTime;
			c.waitTime = 5000;
			c.appHost = "http://app.test";
			c.server = ["h2c", {MaxConcurrentStreams: 4, Silent: true}];
			c.reuseServer = false;
			c.defaultDriver = "fake";
		});
		before;
	`)
	assert.Equal(t, int64(2000), v.ToInteger())

	config := m.cap.Config()
	assert.Equal(t, 5*time.Second, config.WaitTime())
	assert.Equal(t, null.StringFrom("http://app.test"), config.AppHost())
	name, opts := config.Server()
	assert.Equal(t, "h2c", name)
	assert.Equal(t, api.ServerOptions{"MaxConcurrentStreams": 4, "Silent": true}, opts)
	assert.False(t, config.ReuseServer())
	assert.Equal(t, "fake", config.DefaultDriver())

	assert.Equal(t, int64(5000), m.run(t, `capybara.waitTime()`).ToInteger())
	assert.Equal(t, "http://app.test", m.run(t, `capybara.appHost()`).String())
	assert.Empty(t, m.rec.Messages())
}

func TestModuleConfigureClearsHost(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	m.run(t, `capybara.configure(function(c) { c.appHost = "http://app.test"; })`)
	m.run(t, `capybara.configure(function(c) { c.appHost = null; })`)

	assert.False(t, m.cap.Config().AppHost().Valid)
	assert.True(t, goja.IsNull(m.run(t, `capybara.appHost()`)))
}

func TestModuleConfigureInvalidHost(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	_, err := m.rt.RunString(`capybara.configure(function(c) { c.appHost = "www.example.com"; })`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app_host should be set to a url")
	assert.False(t, m.cap.Config().AppHost().Valid)
}

func TestModuleConfigureForward(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	v := m.run(t, `
		capybara.configure(function(c) {
			c.registerDriver("legacy", fakeDriver("legacy"));
		});
		var s = capybara.newSession("legacy");
		s.visit("/bar");
		s.body();
	`)

	assert.Equal(t, "legacy:http://www.example.com/bar", v.String())
	assert.True(t, m.cap.Drivers().Has("legacy"))
	assert.Equal(t, []string{
		"Calling RegisterDriver from Capybara.Configure is deprecated - " +
			"please call it on Capybara directly ( Capybara.RegisterDriver(...) )",
	}, m.rec.Messages())
}

func TestModuleConfigureUnknownMethod(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	_, err := m.rt.RunString(`capybara.configure(function(c) { c.flibble(1); })`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `undefined method "Flibble"`)
	assert.Empty(t, m.rec.Messages())
}

func TestModuleConfigureCallbackError(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	_, err := m.rt.RunString(`
		capybara.configure(function(c) {
			c.waitTime = 5000;
			c.registerDriver("early", fakeDriver("early"));
			throw new Error("boom");
		});
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.Equal(t, 5*time.Second, m.cap.Config().WaitTime())
	assert.True(t, m.cap.Drivers().Has("early"))
}

func TestModuleConfigureObjectBuiltins(t *testing.T) {
	t.Parallel()

	m := newTestModule(t)
	v := m.run(t, `
		var got;
		capybara.configure(function(c) {
			got = [String(c), "" + c, "registerDriver" in c, "waitTime" in c, "flibble" in c];
		});
		got;
	`)

	var got []interface{}
	require.NoError(t, m.rt.ExportTo(v, &got))
	assert.Equal(t, []interface{}{"[object Object]", "[object Object]", true, true, false}, got)
	assert.Empty(t, m.rec.Messages())
}

func TestUpperFirst(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "RegisterDriver", upperFirst("registerDriver"))
	assert.Equal(t, "", upperFirst(""))
}
