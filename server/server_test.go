package server

import (
	"context"
	"crypto/tls"
	"io"
	"math"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/mccutchen/go-httpbin/httpbin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/http2"
	"gopkg.in/guregu/null.v3"

	"github.com/AdrianNowik/capybara/api"
	"github.com/AdrianNowik/capybara/common"
)

func get(t *testing.T, client *http.Client, url string) (*http.Response, string) {
	t.Helper()

	resp, err := client.Get(url) //nolint:noctx
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	bb, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(bb)
}

func shutdown(t *testing.T, srv api.Server) {
	t.Helper()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, srv.Shutdown(ctx))
	})
}

func TestBuiltins(t *testing.T) {
	t.Parallel()

	var (
		logger   = common.NewNullLogger()
		builtins = Builtins(logger)
		app      = httpbin.New().Handler()
	)

	for _, name := range []string{NameDefault, NameHTTP, NameH2C} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			factory, ok := builtins[name]
			require.True(t, ok)

			srv, err := factory(app, 0, null.StringFrom("127.0.0.1"), api.ServerOptions{"Silent": true})
			require.NoError(t, err)
			shutdown(t, srv)

			assert.Equal(t, "127.0.0.1", srv.Host())
			assert.NotZero(t, srv.Port())
			assert.NotEmpty(t, srv.ID())

			resp, body := get(t, http.DefaultClient, srv.URL()+"/html")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, body, "Herman Melville")
		})
	}
}

func TestH2CSpeaksHTTP2(t *testing.T) {
	t.Parallel()

	srv, err := H2C(common.NewNullLogger())(
		httpbin.New().Handler(), 0, null.String{}, api.ServerOptions{"MaxConcurrentStreams": 10},
	)
	require.NoError(t, err)
	shutdown(t, srv)

	client := &http.Client{Transport: &http2.Transport{
		AllowHTTP: true,
		DialTLS: func(network, addr string, _ *tls.Config) (net.Conn, error) {
			return net.Dial(network, addr)
		},
	}}
	resp, _ := get(t, client, srv.URL()+"/get")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, resp.ProtoMajor)
}

func TestTranslateOptions(t *testing.T) {
	t.Parallel()

	var (
		maxStreams     = uint64(math.MaxUint32)
		tooManyStreams = maxStreams + 1
	)

	tests := []struct {
		name    string
		port    int
		host    null.String
		opts    api.ServerOptions
		want    nativeOptions
		wantErr string
	}{
		{
			name: "defaults",
			port: 8000,
			want: nativeOptions{Host: common.DefaultServerHost, Port: 8000},
		},
		{
			name: "host_and_port",
			port: 9000,
			host: null.StringFrom("0.0.0.0"),
			want: nativeOptions{Host: "0.0.0.0", Port: 9000},
		},
		{
			name: "passthrough",
			port: 9000,
			opts: api.ServerOptions{"Silent": true, "Threads": "0:4"},
			want: nativeOptions{Host: common.DefaultServerHost, Port: 9000, Silent: true},
		},
		{
			name: "options_override_arguments",
			port: 9000,
			host: null.StringFrom("127.0.0.1"),
			opts: api.ServerOptions{"Port": 9100, "Host": "localhost"},
			want: nativeOptions{Host: "localhost", Port: 9100},
		},
		{
			name:    "type_mismatch",
			port:    9000,
			opts:    api.ServerOptions{"Silent": "yes"},
			wantErr: "decoding server options",
		},
		{
			name: "max_streams_upper_bound",
			port: 9000,
			opts: api.ServerOptions{"MaxConcurrentStreams": int(maxStreams)},
			want: nativeOptions{Host: common.DefaultServerHost, Port: 9000, MaxConcurrentStreams: int(maxStreams)},
		},
		{
			name:    "max_streams_overflow",
			port:    9000,
			opts:    api.ServerOptions{"MaxConcurrentStreams": int(tooManyStreams)},
			wantErr: "invalid max concurrent streams 4294967296",
		},
		{
			name:    "negative_max_streams",
			port:    9000,
			opts:    api.ServerOptions{"MaxConcurrentStreams": -1},
			wantErr: "invalid max concurrent streams -1",
		},
		{
			name:    "negative_port",
			port:    -1,
			wantErr: "invalid server port -1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := translateOptions(tt.port, tt.host, tt.opts)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListenError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })
	port := ln.Addr().(*net.TCPAddr).Port //nolint:forcetypeassert

	_, err = HTTP(common.NewNullLogger())(nil, port, null.StringFrom("127.0.0.1"), nil)
	assert.ErrorContains(t, err, "listening on")
}

func TestProcessShutdown(t *testing.T) {
	t.Parallel()

	srv, err := RunDefault(http.NotFoundHandler(), 0, common.NewNullLogger())
	require.NoError(t, err)
	p, ok := srv.(*Process)
	require.True(t, ok)
	assert.False(t, api.Stopped(srv))

	require.NoError(t, srv.Shutdown(context.Background()))
	assert.True(t, api.Stopped(srv))
	// second call is a no-op
	require.NoError(t, srv.Shutdown(context.Background()))

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop serving")
	}

	_, err = http.Get(srv.URL()) //nolint:noctx,bodyclose
	assert.Error(t, err)
}

// Not parallel: ForceShutdown touches every registered server.
func TestForceShutdown(t *testing.T) { //nolint:paralleltest
	logger := common.NewNullLogger()
	before := Running()

	s1, err := RunDefault(nil, 0, logger)
	require.NoError(t, err)
	s2, err := HTTP(logger)(nil, 0, null.String{}, api.ServerOptions{"Silent": true})
	require.NoError(t, err)
	assert.Equal(t, before+2, Running())

	ForceShutdown(context.Background())
	assert.Zero(t, Running())
	assert.True(t, api.Stopped(s1))
	assert.True(t, api.Stopped(s2))

	for _, srv := range []api.Server{s1, s2} {
		select {
		case <-srv.(*Process).Done(): //nolint:forcetypeassert
		case <-time.After(5 * time.Second):
			t.Fatalf("server %s still serving", srv.ID())
		}
	}
}
