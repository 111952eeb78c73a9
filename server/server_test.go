package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Daskott/lifeline/server/auth"
	"github.com/Daskott/lifeline/server/auth/key"
	"github.com/Daskott/lifeline/server/models"
	"github.com/Daskott/lifeline/server/push/pushtest"
	"github.com/Daskott/lifeline/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	t         *testing.T
	server    *Server
	store     *store.MemoryStore
	discovery *store.MemoryDiscoveryIndex
	notifier  *pushtest.Recorder
	keyPair   *key.KeyPair
}

func newTestServer(t *testing.T) *testServer {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.Nil(t, err)

	ts := &testServer{
		t:         t,
		store:     store.NewMemoryStore(),
		discovery: store.NewMemoryDiscoveryIndex(),
		notifier:  &pushtest.Recorder{},
		keyPair:   &key.KeyPair{Kid: key.KEY_ID, PrivateKey: privateKey, PublicKey: &privateKey.PublicKey},
	}

	ts.store.PutUser(&models.User{ID: "tony", Name: "Tony Stark", PushToken: "tony-device"})
	ts.store.PutUser(&models.User{ID: "peter", Name: "Peter Parker", PushToken: "peter-device"})
	ts.discovery.Put("peter-token", "peter")

	ts.server = NewServer(&Dependencies{
		Store:     ts.store,
		Discovery: ts.discovery,
		Notifier:  ts.notifier,
		KeyPair:   ts.keyPair,
	})

	return ts
}

func (ts *testServer) token(userID string, isAdmin bool) string {
	token, err := auth.EncodeJWT(auth.NewClaims(userID, isAdmin, time.Hour), ts.keyPair)
	require.Nil(ts.t, err)
	return token
}

func (ts *testServer) do(method, path, token string, body interface{}) (int, ResponsePayload) {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.Nil(ts.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)

	payload := ResponsePayload{}
	json.NewDecoder(rec.Body).Decode(&payload)

	return rec.Code, payload
}

func TestHealthAndJWKS(t *testing.T) {
	ts := newTestServer(t)

	code, payload := ts.do("GET", "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, payload.Success)

	req := httptest.NewRequest("GET", "/jwks", nil)
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	jwks := map[string][]map[string]interface{}{}
	require.Nil(t, json.NewDecoder(rec.Body).Decode(&jwks))
	require.Len(t, jwks["keys"], 1)
	assert.Equal(t, key.KEY_ID, jwks["keys"][0]["kid"])
}

func TestAuthGuards(t *testing.T) {
	ts := newTestServer(t)

	testCases := []struct {
		description  string
		method       string
		path         string
		token        string
		expectedCode int
	}{
		{"no token", "GET", "/api/v1/users/tony/contacts", "", http.StatusUnauthorized},
		{"bad token", "GET", "/api/v1/users/tony/contacts", "not-a-jwt", http.StatusUnauthorized},
		{"another user's contacts", "GET", "/api/v1/users/peter/contacts", ts.token("tony", false), http.StatusForbidden},
		{"admin can view", "GET", "/api/v1/users/peter/contacts", ts.token("tony", true), http.StatusOK},
		{"admin can't act for others", "POST", "/api/v1/users/peter/check-in", ts.token("tony", true), http.StatusForbidden},
		{"own contacts", "GET", "/api/v1/users/tony/contacts", ts.token("tony", false), http.StatusOK},
	}

	for _, tc := range testCases {
		code, _ := ts.do(tc.method, tc.path, tc.token, nil)
		assert.Equal(t, tc.expectedCode, code, tc.description)
	}
}

func TestContactLifecycle(t *testing.T) {
	ts := newTestServer(t)
	tony, peter := ts.token("tony", false), ts.token("peter", false)

	code, payload := ts.do("POST", "/api/v1/users/tony/contacts", tony, map[string]interface{}{
		"discovery_token": "peter-token",
		"is_responder":    false,
		"is_dependent":    true,
	})
	require.Equal(t, http.StatusCreated, code, payload.Errors)
	assert.Equal(t, map[string]interface{}{"contact_id": "peter"}, payload.Data)

	code, _ = ts.do("POST", "/api/v1/users/tony/contacts", tony, map[string]interface{}{
		"discovery_token": "peter-token",
		"is_responder":    false,
		"is_dependent":    true,
	})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = ts.do("POST", "/api/v1/users/tony/contacts/peter/ping", tony, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Len(t, ts.notifier.SentTo("peter-device"), 1)

	// tony is not a dependent of peter
	code, _ = ts.do("POST", "/api/v1/users/peter/contacts/tony/ping", peter, nil)
	assert.Equal(t, http.StatusPreconditionFailed, code)

	code, payload = ts.do("POST", "/api/v1/users/peter/pings/response", peter, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{"cleared": float64(1)}, payload.Data)

	code, _ = ts.do("DELETE", "/api/v1/users/tony/contacts/peter/ping", tony, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = ts.do("PUT", "/api/v1/users/tony/contacts/peter/roles", tony, map[string]interface{}{
		"is_responder": true,
		"is_dependent": false,
	})
	assert.Equal(t, http.StatusOK, code)

	code, _ = ts.do("PUT", "/api/v1/users/tony/contacts/peter/preferences", tony, map[string]interface{}{
		"nickname":          "Spidey",
		"send_pings":        false,
		"update_reciprocal": true,
	})
	assert.Equal(t, http.StatusOK, code)

	code, payload = ts.do("GET", "/api/v1/users/peter/contacts", peter, nil)
	assert.Equal(t, http.StatusOK, code)
	contacts := payload.Data.([]interface{})
	require.Len(t, contacts, 1)
	entry := contacts[0].(map[string]interface{})
	assert.Equal(t, "users/tony", entry["reference"])
	assert.Equal(t, false, entry["is_responder"])
	assert.Equal(t, true, entry["is_dependent"])
	assert.Equal(t, false, entry["receive_pings"])

	code, _ = ts.do("DELETE", "/api/v1/users/tony/contacts/peter", tony, nil)
	assert.Equal(t, http.StatusOK, code)

	user, err := ts.store.GetUser(context.Background(), "peter")
	require.Nil(t, err)
	assert.Empty(t, user.Contacts)
}

func TestUpdatePreferencesReciprocalDefault(t *testing.T) {
	testCases := []struct {
		description      string
		body             map[string]interface{}
		wantReceivePings bool
	}{
		{"omitted mirrors onto peter", map[string]interface{}{"send_pings": false}, false},
		{"true mirrors onto peter", map[string]interface{}{"send_pings": false, "update_reciprocal": true}, false},
		{"false leaves peter alone", map[string]interface{}{"send_pings": false, "update_reciprocal": false}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			ts := newTestServer(t)
			tony := ts.token("tony", false)

			code, payload := ts.do("POST", "/api/v1/users/tony/contacts", tony, map[string]interface{}{
				"discovery_token": "peter-token",
				"is_responder":    true,
				"is_dependent":    false,
			})
			require.Equal(t, http.StatusCreated, code, payload.Errors)

			code, payload = ts.do("PUT", "/api/v1/users/tony/contacts/peter/preferences", tony, tc.body)
			require.Equal(t, http.StatusOK, code, payload.Errors)

			peter, err := ts.store.GetUser(context.Background(), "peter")
			require.Nil(t, err)
			require.Len(t, peter.Contacts, 1)
			assert.Equal(t, tc.wantReceivePings, peter.Contacts[0].ReceivePings)

			tonyUser, err := ts.store.GetUser(context.Background(), "tony")
			require.Nil(t, err)
			assert.False(t, tonyUser.Contacts[0].SendPings)
		})
	}
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t)
	tony := ts.token("tony", false)

	testCases := []struct {
		description  string
		method       string
		path         string
		body         interface{}
		expectedCode int
	}{
		{"missing role flag", "POST", "/api/v1/users/tony/contacts", map[string]interface{}{"discovery_token": "peter-token", "is_responder": true}, http.StatusBadRequest},
		{"unknown field", "PUT", "/api/v1/users/tony/contacts/peter/roles", map[string]interface{}{"is_admin": true}, http.StatusBadRequest},
		{"empty preferences", "PUT", "/api/v1/users/tony/contacts/peter/preferences", map[string]interface{}{}, http.StatusBadRequest},
		{"unknown discovery token", "POST", "/api/v1/users/tony/contacts", map[string]interface{}{"discovery_token": "nope", "is_responder": true, "is_dependent": false}, http.StatusNotFound},
		{"self as contact", "DELETE", "/api/v1/users/tony/contacts/tony", nil, http.StatusBadRequest},
		{"unrelated contact", "POST", "/api/v1/users/tony/contacts/peter/ping/response", nil, http.StatusNotFound},
	}

	for _, tc := range testCases {
		code, payload := ts.do(tc.method, tc.path, tony, tc.body)
		assert.Equal(t, tc.expectedCode, code, tc.description)
		assert.False(t, payload.Success, tc.description)
		assert.NotEmpty(t, payload.Errors, tc.description)
	}
}

func TestCheckInPushTokenAndDiscovery(t *testing.T) {
	ts := newTestServer(t)
	peter := ts.token("peter", false)

	code, payload := ts.do("POST", "/api/v1/users/peter/discovery-token", peter, nil)
	assert.Equal(t, http.StatusCreated, code)
	token := payload.Data.(map[string]interface{})["discovery_token"].(string)
	assert.NotEmpty(t, token)

	code, _ = ts.do("PUT", "/api/v1/users/peter/push-token", peter, map[string]string{"push_token": "new-device"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = ts.do("POST", "/api/v1/users/peter/check-in", peter, nil)
	assert.Equal(t, http.StatusOK, code)

	user, err := ts.store.GetUser(context.Background(), "peter")
	require.Nil(t, err)
	assert.Equal(t, "new-device", user.PushToken)
	assert.False(t, user.LastCheckedIn.IsZero())
}
