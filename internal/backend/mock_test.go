package backend

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockService(t *testing.T) {
	mock := NewMockService(64)
	ctx := context.Background()

	status, err := mock.GetPersistentTTL(ctx)
	require.NoError(t, err)
	assert.False(t, status.IsPersistent)
	assert.Nil(t, status.TTLValue)

	ok, err := mock.MakeTTLPersistent(ctx, 70)
	require.NoError(t, err)
	assert.True(t, ok)

	status, err = mock.GetPersistentTTL(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsPersistent)
	assert.Equal(t, 70, *status.TTLValue)

	// Persisting the default still leaves a rule behind, pinned to 64
	_, err = mock.MakeTTLPersistent(ctx, 64)
	require.NoError(t, err)
	status, _ = mock.GetPersistentTTL(ctx)
	assert.True(t, status.IsPersistent)
	require.NotNil(t, status.TTLValue)
	assert.Equal(t, 64, *status.TTLValue)

	assert.Equal(t, []int{70, 64}, mock.Args(ProcMakeTTLPersistent))
	assert.Equal(t, 3, mock.Calls(ProcGetPersistentTTL))
	assert.Equal(t, 5, mock.TotalCalls())
}

func TestMockServiceInjection(t *testing.T) {
	mock := NewMockService(64)
	ctx := context.Background()

	mock.SetSilentAck(ProcSetTTLTo65, true)
	ok, err := mock.SetTTLTo65(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 64, mock.TTL(), "silent ack must not apply the change")

	boom := stderrors.New("boom")
	mock.SetFault(ProcResetTTLToDefault, boom)
	_, err = mock.ResetTTLToDefault(ctx)
	assert.ErrorIs(t, err, boom)

	mock.SetFault(ProcResetTTLToDefault, nil)
	ok, err = mock.ResetTTLToDefault(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMockServiceBlock(t *testing.T) {
	mock := NewMockService(64)
	entered, release := mock.Block(ProcSetTTLCustom)

	done := make(chan bool, 1)
	go func() {
		ok, _ := mock.SetTTLCustom(context.Background(), 99)
		done <- ok
	}()

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("call never reached the gate")
	}
	assert.Equal(t, 64, mock.TTL())

	release()
	assert.True(t, <-done)
	assert.Equal(t, 99, mock.TTL())
}

func TestMockServiceBlockHonoursContext(t *testing.T) {
	mock := NewMockService(64)
	_, release := mock.Block(ProcGetCurrentTTL)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := mock.GetCurrentTTL(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
