package broker

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/commerce-backend/pkg/e"
	"github.com/DRSN-tech/commerce-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusRequestReply(t *testing.T) {
	bus := NewMemoryBus(logger.NewNop())
	disp := NewDispatcher(bus, logger.NewNop())
	disp.Handle("echo", func(_ context.Context, env *Envelope) (*Envelope, error) {
		var payload map[string]string
		require.NoError(t, env.Decode(&payload))
		return NewReply(env, payload)
	})
	bus.Subscribe("svc.rpc", disp)

	env, err := NewMessage("echo", map[string]string{"k": "v"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	reply, err := bus.Request(ctx, "svc.rpc", env)
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, reply.Decode(&payload))
	assert.Equal(t, "v", payload["k"])
	assert.Equal(t, env.CorrelationID, reply.CorrelationID)
}

func TestMemoryBusRequestTimeout(t *testing.T) {
	bus := NewMemoryBus(logger.NewNop())
	disp := NewDispatcher(bus, logger.NewNop())
	disp.Handle("slow", func(ctx context.Context, env *Envelope) (*Envelope, error) {
		time.Sleep(200 * time.Millisecond)
		return NewReply(env, struct{}{})
	})
	bus.Subscribe("svc.rpc", disp)

	env, err := NewMessage("slow", struct{}{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = bus.Request(ctx, "svc.rpc", env)
	// Таймаут отличим от NotFound: шлюз отдаст 503, а не 404.
	assert.ErrorIs(t, err, e.ErrUpstreamUnavailable)

	bus.Wait()
}

func TestMemoryBusRequestNoConsumer(t *testing.T) {
	bus := NewMemoryBus(logger.NewNop())

	env, err := NewMessage("anything", struct{}{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = bus.Request(ctx, "dead.topic", env)
	assert.ErrorIs(t, err, e.ErrUpstreamUnavailable)
}

func TestMemoryBusRedeliversAfterNack(t *testing.T) {
	bus := NewMemoryBus(logger.NewNop())
	disp := NewDispatcher(bus, logger.NewNop())

	var attempts atomic.Int32
	disp.Handle("flaky.event", func(_ context.Context, _ *Envelope) (*Envelope, error) {
		if attempts.Add(1) < 3 {
			return nil, fmt.Errorf("transient failure")
		}
		return nil, nil
	})
	bus.Subscribe("svc.events", disp)

	env, err := NewMessage("flaky.event", struct{}{})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(context.Background(), "svc.events", "key", env))
	bus.Wait()

	assert.Equal(t, int32(3), attempts.Load())
}
