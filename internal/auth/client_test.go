package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestClient(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Store, *Account, *HTTPVerifier, *HTTPRefresher) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client := NewHTTPClient(ts.URL, jar)
	store := NewStore(&MemoryMarker{})
	return ts, store, NewAccount(client, store), NewVerifier(client), NewRefresher(client)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestVerify_ValidTokenWithFlag(t *testing.T) {
	_, _, _, verifier, _ := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, MePath, r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"email": "a@b.c", "is_new_account": true})
	})

	res := verifier.Verify(context.Background(), "tok")

	assert.True(t, res.IsValid)
	require.NotNil(t, res.IsNewAccount)
	assert.True(t, *res.IsNewAccount)
}

func TestVerify_ValidTokenWithoutFlag(t *testing.T) {
	_, _, _, verifier, _ := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"email": "a@b.c"})
	})

	res := verifier.Verify(context.Background(), "tok")

	assert.True(t, res.IsValid)
	assert.Nil(t, res.IsNewAccount)
}

func TestVerify_NonSuccessIsInvalid(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusInternalServerError, http.StatusBadGateway} {
		_, _, _, verifier, _ := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, map[string]string{"message": "No autorizado"})
		})

		res := verifier.Verify(context.Background(), "tok")

		assert.False(t, res.IsValid, "status %d", status)
	}
}

func TestVerify_NetworkFailureIsInvalid(t *testing.T) {
	ts, _, _, verifier, _ := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ts.Close()

	res := verifier.Verify(context.Background(), "tok")

	assert.False(t, res.IsValid)
}

func TestRefresh_Success(t *testing.T) {
	_, _, _, _, refresher := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, RefreshPath, r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"accessToken": "new"})
	})

	assert.Equal(t, RefreshResult{Token: "new"}, refresher.Refresh(context.Background()))
}

func TestRefresh_SendsJarCookie(t *testing.T) {
	_, store, account, _, refresher := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LoginPath:
			http.SetCookie(w, &http.Cookie{Name: "refreshToken", Value: "rt-1", Path: "/", HttpOnly: true})
			writeJSON(w, http.StatusOK, map[string]any{"accessToken": "a1"})
		case RefreshPath:
			c, err := r.Cookie("refreshToken")
			if err != nil || c.Value != "rt-1" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No refresh token found"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{"accessToken": "a2"})
		}
	})

	require.NoError(t, account.Login(context.Background(), "a@b.c", "secret"))
	assert.Equal(t, "a1", store.AccessToken())

	assert.Equal(t, RefreshResult{Token: "a2"}, refresher.Refresh(context.Background()))
}

func TestRefresh_UnauthorizedAndOtherFailures(t *testing.T) {
	tests := []struct {
		status int
		want   RefreshResult
	}{
		{http.StatusUnauthorized, RefreshResult{Unauthorized: true}},
		{http.StatusInternalServerError, RefreshResult{}},
		{http.StatusForbidden, RefreshResult{}},
	}
	for _, tt := range tests {
		_, _, _, _, refresher := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, tt.status, map[string]string{"message": "Token de actualización inválido"})
		})

		assert.Equal(t, tt.want, refresher.Refresh(context.Background()), "status %d", tt.status)
	}
}

func TestRefresh_NetworkFailureIsNotUnauthorized(t *testing.T) {
	ts, _, _, _, refresher := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ts.Close()

	assert.Equal(t, RefreshResult{}, refresher.Refresh(context.Background()))
}

func TestLogin_FailureCarriesMessage(t *testing.T) {
	_, store, account, _, _ := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Credenciales inválidas"})
	})

	err := account.Login(context.Background(), "a@b.c", "bad")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Credenciales inválidas", apiErr.Message)
	assert.ErrorIs(t, err, ErrAPI)
	assert.Empty(t, store.AccessToken())
}

func TestLoginWithGoogle_SetsNewAccount(t *testing.T) {
	_, store, account, _, _ := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, GooglePath, r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "google-id-token", body["token"])
		writeJSON(w, http.StatusOK, map[string]any{"accessToken": "g1", "isNewAccount": true})
	})

	require.NoError(t, account.LoginWithGoogle(context.Background(), "google-id-token"))

	assert.Equal(t, "g1", store.AccessToken())
	assert.True(t, store.IsNewAccount())
}

func TestRegister_AlwaysNewAccount(t *testing.T) {
	_, store, account, _, _ := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Acme", body.CompanyName)
		writeJSON(w, http.StatusCreated, map[string]any{"accessToken": "r1"})
	})

	err := account.Register(context.Background(), RegisterRequest{CompanyName: "Acme", Email: "a@b.c", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "r1", store.AccessToken())
	assert.True(t, store.IsNewAccount())
}

func TestLogout_ClearsEvenOnFailure(t *testing.T) {
	ts, store, account, _, _ := makeTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	ts.Close()
	store.SetAccessToken("tok")
	store.SetIsNewAccount(true)

	account.Logout(context.Background())

	assert.Equal(t, State{}, store.Snapshot())
}
