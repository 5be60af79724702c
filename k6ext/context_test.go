package k6ext

import (
	"context"
	"errors"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	k6modulestest "go.k6.io/k6/js/modulestest"
)

func TestVUContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Nil(t, GetVU(ctx))
	assert.Nil(t, Runtime(ctx))

	rt := goja.New()
	vu := &k6modulestest.VU{RuntimeField: rt, CtxField: ctx}
	ctx = WithVU(ctx, vu)

	assert.Same(t, vu, GetVU(ctx))
	assert.Same(t, rt, Runtime(ctx))
}

func TestPanic(t *testing.T) {
	t.Parallel()

	t.Run("without_vu", func(t *testing.T) {
		t.Parallel()

		defer func() {
			r := recover()
			err, ok := r.(error)
			require.True(t, ok)
			assert.EqualError(t, err, "visiting: boom")
		}()
		Panic(context.Background(), "visiting: %w", errors.New("boom"))
	})

	t.Run("with_vu", func(t *testing.T) {
		t.Parallel()

		rt := goja.New()
		ctx := WithVU(context.Background(), &k6modulestest.VU{RuntimeField: rt})

		defer func() {
			r := recover()
			obj, ok := r.(*goja.Object)
			require.True(t, ok, "got %T", r)
			assert.Contains(t, obj.String(), "visiting: boom")
		}()
		Panic(ctx, "visiting: %w", errors.New("boom"))
	})
}
