package backend

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttlpanel/internal/errors"
)

const testPlugin = "TTL Changer"

func newTestServer(t *testing.T, svc Service, token string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(svc, ServerConfig{Plugin: testPlugin, Token: token}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTripsEveryProcedure(t *testing.T) {
	mock := NewMockService(64)
	srv := newTestServer(t, mock, "")
	client := NewClient(srv.URL+"/", testPlugin)
	ctx := context.Background()

	ttl, err := client.GetCurrentTTL(ctx)
	require.NoError(t, err)
	assert.Equal(t, 64, ttl)

	ok, err := client.SetTTLTo65(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 65, mock.TTL())

	ok, err = client.MakeTTLPersistent(ctx, 65)
	require.NoError(t, err)
	assert.True(t, ok)

	status, err := client.GetPersistentTTL(ctx)
	require.NoError(t, err)
	assert.True(t, status.IsPersistent)
	require.NotNil(t, status.TTLValue)
	assert.Equal(t, 65, *status.TTLValue)

	ok, err = client.SetTTLCustom(ctx, 100)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 100, mock.TTL())
	assert.Equal(t, []int{100}, mock.Args(ProcSetTTLCustom))

	ok, err = client.ResetTTLToDefault(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 64, mock.TTL())

	for _, proc := range Procedures {
		assert.Equal(t, 1, mock.Calls(proc), proc)
	}
}

func TestClientReportsFalsyResult(t *testing.T) {
	mock := NewMockService(64)
	mock.SetReject(ProcSetTTLTo65, true)
	client := NewClient(newTestServer(t, mock, "").URL, testPlugin)

	ok, err := client.SetTTLTo65(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 64, mock.TTL())
}

func TestClientTreatsNegativeTTLAsRejection(t *testing.T) {
	mock := NewMockService(64)
	mock.SetReject(ProcGetCurrentTTL, true)
	client := NewClient(newTestServer(t, mock, "").URL, testPlugin)

	_, err := client.GetCurrentTTL(context.Background())
	assert.ErrorIs(t, err, errors.ErrRejected)
}

func TestClientSurfacesBackendException(t *testing.T) {
	mock := NewMockService(64)
	mock.SetFault(ProcMakeTTLPersistent, stderrors.New("PermissionError: /etc/sysctl.conf"))
	client := NewClient(newTestServer(t, mock, "").URL, testPlugin)

	_, err := client.MakeTTLPersistent(context.Background(), 65)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrBackend)
	assert.Contains(t, err.Error(), "PermissionError")
}

func TestClientSendsTokenAndRequestID(t *testing.T) {
	mock := NewMockService(64)
	srv := newTestServer(t, mock, "secret")

	_, err := NewClient(srv.URL, testPlugin).GetCurrentTTL(context.Background())
	assert.ErrorIs(t, err, errors.ErrTransport)
	assert.Contains(t, err.Error(), "check the token")

	ttl, err := NewClient(srv.URL, testPlugin, WithToken("secret")).GetCurrentTTL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 64, ttl)

	var seen string
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(requestIDHeader)
		json.NewEncoder(w).Encode(callResponse{Success: true, Result: json.RawMessage("64")})
	}))
	defer probe.Close()

	_, err = NewClient(probe.URL, testPlugin).GetCurrentTTL(context.Background())
	require.NoError(t, err)
	assert.Len(t, seen, 36)
}

func TestClientUnknownPlugin(t *testing.T) {
	client := NewClient(newTestServer(t, NewMockService(64), "").URL, "Other Plugin")

	_, err := client.GetCurrentTTL(context.Background())
	assert.ErrorIs(t, err, errors.ErrTransport)
}

func TestClientTimeout(t *testing.T) {
	mock := NewMockService(64)
	_, release := mock.Block(ProcSetTTLTo65)
	defer release()
	client := NewClient(newTestServer(t, mock, "").URL, testPlugin, WithTimeout(50*time.Millisecond))

	_, err := client.SetTTLTo65(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrTransport)
	assert.Contains(t, err.Error(), "did not answer in time")
}

func TestClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, testPlugin).GetPersistentTTL(context.Background())
	assert.ErrorIs(t, err, errors.ErrTransport)
}

func TestClientMalformedResult(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "result": "sixty-four"}`))
	}))
	defer probe.Close()

	_, err := NewClient(probe.URL, testPlugin).GetCurrentTTL(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeDecode, errors.TypeOf(err))
}

func TestClientPersistenceAbsentValue(t *testing.T) {
	probe := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": true, "result": {"is_persistent": false, "ttl_value": 65}}`))
	}))
	defer probe.Close()

	status, err := NewClient(probe.URL, testPlugin).GetPersistentTTL(context.Background())
	require.NoError(t, err)
	assert.False(t, status.IsPersistent)
	assert.Nil(t, status.TTLValue, "value must be absent when not persistent")
}
