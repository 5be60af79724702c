package capybara

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
	"github.com/AdrianNowik/capybara/driver/rack"
	"github.com/AdrianNowik/capybara/server"
)

func TestConfigureSetters(t *testing.T) {
	t.Parallel()

	c, rec := newTestCapybara(t)
	err := c.Configure(func(cfg *Configurator) error {
		cfg.SetWaitTime(5 * time.Second)
		if err := cfg.SetAppHost(null.StringFrom("http://app.test")); err != nil {
			return err
		}
		if err := cfg.SetDefaultHost(null.StringFrom("http://default.test")); err != nil {
			return err
		}
		cfg.SetServer(server.NameH2C, api.ServerOptions{"MaxConcurrentStreams": 4})
		cfg.SetReuseServer(false)
		cfg.SetRunServer(false)
		cfg.SetDefaultDriver("schmoo")
		cfg.SetServerHost("0.0.0.0")
		cfg.SetServerPort(8080)
		cfg.SetSavePath("/tmp/pages")
		return nil
	})
	require.NoError(t, err)

	config := c.Config()
	assert.Equal(t, 5*time.Second, config.WaitTime())
	assert.Equal(t, null.StringFrom("http://app.test"), config.AppHost())
	assert.Equal(t, null.StringFrom("http://default.test"), config.DefaultHost())
	name, opts := config.Server()
	assert.Equal(t, server.NameH2C, name)
	assert.Equal(t, api.ServerOptions{"MaxConcurrentStreams": 4}, opts)
	assert.False(t, config.ReuseServer())
	assert.False(t, config.RunServer())
	assert.Equal(t, "schmoo", config.DefaultDriver())
	assert.Equal(t, "0.0.0.0", config.ServerHost())
	assert.Equal(t, 8080, config.ServerPort())
	assert.Equal(t, "/tmp/pages", config.SavePath())

	assert.Empty(t, rec.Messages(), "setters do not warn")
}

func TestConfigureInvalidHost(t *testing.T) {
	t.Parallel()

	c, _ := newTestCapybara(t)
	err := c.Configure(func(cfg *Configurator) error {
		return cfg.SetAppHost(null.StringFrom("www.example.com"))
	})

	var ce *common.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "app_host", ce.Field)
	assert.False(t, c.Config().AppHost().Valid)
}

func TestConfigureReturnsBlockError(t *testing.T) {
	t.Parallel()

	t.Run("unchanged", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCapybara(t)
		boom := errors.New("boom")
		err := c.Configure(func(*Configurator) error { return boom })
		assert.Same(t, boom, err)
	})

	t.Run("keeps_earlier_changes", func(t *testing.T) {
		t.Parallel()

		c, rec := newTestCapybara(t)
		boom := errors.New("boom")
		err := c.Configure(func(cfg *Configurator) error {
			cfg.SetWaitTime(5 * time.Second)
			if err := cfg.Forward("RegisterDriver", "schmoo", api.DriverFactory(rack.Factory)); err != nil {
				return err
			}
			return boom
		})
		assert.Same(t, boom, err)

		assert.Equal(t, 5*time.Second, c.Config().WaitTime())
		assert.True(t, c.Drivers().Has("schmoo"))
		assert.Len(t, rec.Messages(), 1)
	})
}

func TestConfigureForward(t *testing.T) {
	t.Parallel()

	const warnRegisterDriver = "Calling RegisterDriver from Capybara.Configure is deprecated - " +
		"please call it on Capybara directly ( Capybara.RegisterDriver(...) )"

	t.Run("register_driver", func(t *testing.T) {
		t.Parallel()

		c, rec := newTestCapybara(t)
		err := c.Configure(func(cfg *Configurator) error {
			return cfg.Forward("RegisterDriver", "schmoo", api.DriverFactory(rack.Factory))
		})
		require.NoError(t, err)

		assert.True(t, c.Drivers().Has("schmoo"))
		assert.Equal(t, []string{warnRegisterDriver}, rec.Messages())
	})

	t.Run("register_driver_plain_func", func(t *testing.T) {
		t.Parallel()

		c, rec := newTestCapybara(t)
		factory := func(app http.Handler) (api.Driver, error) { return rack.New(app) }
		err := c.Configure(func(cfg *Configurator) error {
			return cfg.Forward("RegisterDriver", "plain", factory)
		})
		require.NoError(t, err)

		assert.True(t, c.Drivers().Has("plain"))
		assert.Len(t, rec.Messages(), 1)
	})

	t.Run("register_server", func(t *testing.T) {
		t.Parallel()

		c, rec := newTestCapybara(t)
		err := c.Configure(func(cfg *Configurator) error {
			return cfg.Forward("RegisterServer", "blob", server.HTTP(c.Logger()))
		})
		require.NoError(t, err)

		assert.Contains(t, c.Servers().Names(), "blob")
		assert.Equal(t, []string{
			"Calling RegisterServer from Capybara.Configure is deprecated - " +
				"please call it on Capybara directly ( Capybara.RegisterServer(...) )",
		}, rec.Messages())
	})

	t.Run("reset_sessions", func(t *testing.T) {
		t.Parallel()

		c, rec := newTestCapybara(t)
		c.SetApp(helloApp())
		s := c.CurrentSession()
		require.NoError(t, s.Visit(context.Background(), "/"))

		err := c.Configure(func(cfg *Configurator) error {
			return cfg.Forward("ResetSessions")
		})
		require.NoError(t, err)

		body, err := s.Body()
		require.NoError(t, err)
		assert.Empty(t, body)
		assert.Len(t, rec.Messages(), 1)
	})

	t.Run("one_warning_per_call", func(t *testing.T) {
		t.Parallel()

		c, rec := newTestCapybara(t)
		err := c.Configure(func(cfg *Configurator) error {
			for _, name := range []string{"a", "b"} {
				if err := cfg.Forward("RegisterDriver", name, api.DriverFactory(rack.Factory)); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{warnRegisterDriver, warnRegisterDriver}, rec.Messages())
	})

	t.Run("can_forward", func(t *testing.T) {
		t.Parallel()

		c, rec := newTestCapybara(t)
		err := c.Configure(func(cfg *Configurator) error {
			assert.True(t, cfg.CanForward("RegisterDriver"))
			assert.True(t, cfg.CanForward("ResetSessions"))
			assert.False(t, cfg.CanForward("Flibble"))
			return nil
		})
		require.NoError(t, err)
		assert.Empty(t, rec.Messages())
	})

	t.Run("unknown_method", func(t *testing.T) {
		t.Parallel()

		c, rec := newTestCapybara(t)
		err := c.Configure(func(cfg *Configurator) error {
			return cfg.Forward("Flibble", 1)
		})

		var um *common.UnknownMethodError
		require.True(t, errors.As(err, &um))
		assert.Equal(t, "Flibble", um.Method)
		assert.True(t, errors.Is(err, common.ErrUnknownMethod))
		assert.Empty(t, rec.Messages())
	})

	t.Run("bad_arguments", func(t *testing.T) {
		t.Parallel()

		c, _ := newTestCapybara(t)
		tests := []struct {
			method  string
			args    []any
			wantErr string
		}{
			{"RegisterDriver", []any{"x"}, "wrong number of arguments (given 1, expected 2)"},
			{"RegisterDriver", []any{1, api.DriverFactory(rack.Factory)}, "argument 0 must be string, got int"},
			{"RegisterDriver", []any{"x", "y"}, "argument 1 must be api.DriverFactory, got string"},
			{"RegisterServer", []any{"x", rack.Factory}, "argument 1 must be api.ServerFactory"},
			{"ResetSessions", []any{true}, "wrong number of arguments (given 1, expected 0)"},
		}
		for _, tt := range tests {
			err := c.Configure(func(cfg *Configurator) error {
				return cfg.Forward(tt.method, tt.args...)
			})
			assert.ErrorContains(t, err, tt.wantErr, tt.method)
		}
		assert.False(t, c.Drivers().Has("x"))
	})
}
