package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-governance/vigil/internal/callerauth"
	"github.com/vigil-governance/vigil/internal/gate"
	"github.com/vigil-governance/vigil/internal/model"
	"github.com/vigil-governance/vigil/internal/ontology"
	"github.com/vigil-governance/vigil/internal/registry"
	"github.com/vigil-governance/vigil/internal/server"
	"github.com/vigil-governance/vigil/internal/signer"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

type fakeLedger struct {
	mu   sync.Mutex
	rows []model.Verdict
}

func (l *fakeLedger) Append(_ context.Context, v model.Verdict) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows = append(l.rows, v)
	return nil
}

func (l *fakeLedger) Ping(context.Context) error { return nil }

func teleportAction() ontology.FakeAction {
	return ontology.FakeAction{
		Domain: "aviation", Verb: "teleport_aircraft", RequiredMaturity: 1, RequiresValidation: false,
	}
}

func newTestServer(t *testing.T) (*server.Server, *callerauth.Manager) {
	t.Helper()
	onto := ontology.NewFakeClient(teleportAction())
	reg := registry.New(150 * time.Millisecond)
	s := signer.New("test-secret")
	led := &fakeLedger{}
	g := gate.New(onto, reg, s, led, nil, gate.DefaultConfig(), discardLogger())

	authMgr, err := callerauth.NewManager("", "", time.Hour)
	require.NoError(t, err)

	srv := server.New(server.ServerConfig{
		Gate:                g,
		Ontology:            onto,
		Ledger:              led,
		CallerAuth:          authMgr,
		Logger:              discardLogger(),
		Port:                0,
		ReadTimeout:         time.Second,
		WriteTimeout:        time.Second,
		MaxRequestBodyBytes: 1 << 20,
		CORSAllowedOrigins:  []string{"*"},
	})
	return srv, authMgr
}

func TestHealthRequiresNoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyRequiresNoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp model.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
}

func TestValidateWithoutTokenIsUnauthorized(t *testing.T) {
	srv, _ := newTestServer(t)
	body, _ := json.Marshal(model.ValidateRequest{
		Action: model.ActionPrimitive{Domain: "aviation", Verb: "teleport_aircraft"},
		Agent:  model.AgentContext{MaturityLevel: 1},
	})
	req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidateWithTokenReturnsVerdict(t *testing.T) {
	srv, authMgr := newTestServer(t)
	token, _, err := authMgr.IssueToken("front-end-01")
	require.NoError(t, err)

	body, _ := json.Marshal(model.ValidateRequest{
		Action: model.ActionPrimitive{Domain: "aviation", Verb: "teleport_aircraft"},
		Agent:  model.AgentContext{MaturityLevel: 1, TraceID: "trace-1"},
	})
	req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewReader(body))
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp model.APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
}

func TestValidateMalformedBodyIsBadRequest(t *testing.T) {
	srv, authMgr := newTestServer(t)
	token, _, err := authMgr.IssueToken("front-end-01")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/validate", bytes.NewReader([]byte(`{"action": "not-an-object"}`)))
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
