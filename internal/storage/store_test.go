package storage

import (
	"net/http"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/iam-recruit/dashboard/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:", "test-passphrase")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := DeriveKey("secret", make([]byte, saltLength))
	require.NoError(t, err)

	sealed, err := encrypt([]byte("refresh-token"), key)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "refresh-token")

	plain, err := decrypt(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", string(plain))

	other, err := DeriveKey("other", make([]byte, saltLength))
	require.NoError(t, err)
	_, err = decrypt(sealed, other)
	assert.Error(t, err)
}

func TestDeriveKey_Validation(t *testing.T) {
	_, err := DeriveKey("", make([]byte, saltLength))
	assert.ErrorIs(t, err, ErrEmptyPassphrase)

	_, err = DeriveKey("secret", []byte("short"))
	assert.Error(t, err)
}

func TestNewSQLiteStore_WrongPassphrase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recruit.db")

	store, err := NewSQLiteStore(path, "first")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = NewSQLiteStore(path, "second")
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	store, err = NewSQLiteStore(path, "first")
	require.NoError(t, err)
	store.Close()
}

func TestJar_RoundTripAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recruit.db")
	u := mustURL(t, "http://localhost:3000/api/auth/login")

	store, err := NewSQLiteStore(path, "pass")
	require.NoError(t, err)
	NewJar(store).SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "r1", Path: "/", MaxAge: 3600, HttpOnly: true}})
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path, "pass")
	require.NoError(t, err)
	defer store.Close()

	cookies := NewJar(store).Cookies(mustURL(t, "http://localhost:3000/api/auth/refresh"))
	require.Len(t, cookies, 1)
	assert.Equal(t, "refreshToken", cookies[0].Name)
	assert.Equal(t, "r1", cookies[0].Value)
}

func TestJar_MaxAgeNegativeDeletes(t *testing.T) {
	jar := NewJar(newTestStore(t))
	u := mustURL(t, "http://localhost/api/auth/logout")

	jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Value: "r1", Path: "/"}})
	require.Len(t, jar.Cookies(u), 1)

	jar.SetCookies(u, []*http.Cookie{{Name: "refreshToken", Path: "/", MaxAge: -1}})
	assert.Empty(t, jar.Cookies(u))
}

func TestJar_Expiry(t *testing.T) {
	jar := NewJar(newTestStore(t))
	now := time.Unix(1_700_000_000, 0)
	jar.now = func() time.Time { return now }
	u := mustURL(t, "http://localhost/")

	jar.SetCookies(u, []*http.Cookie{{Name: "auth-success", Value: "true", Path: "/", MaxAge: 10}})
	require.Len(t, jar.Cookies(u), 1)

	now = now.Add(11 * time.Second)
	assert.Empty(t, jar.Cookies(u))
}

func TestJar_PathAndSecureMatching(t *testing.T) {
	jar := NewJar(newTestStore(t))
	jar.SetCookies(mustURL(t, "https://app.example/api/auth/login"), []*http.Cookie{
		{Name: "refreshToken", Value: "r1", Path: "/", Secure: true},
		{Name: "scoped", Value: "s", Path: "/api/auth"},
	})

	assert.Len(t, jar.Cookies(mustURL(t, "https://app.example/api/auth/refresh")), 2)
	assert.Len(t, jar.Cookies(mustURL(t, "https://app.example/api/authors")), 1)
	assert.Len(t, jar.Cookies(mustURL(t, "http://app.example/api/auth/refresh")), 1)
	assert.Empty(t, jar.Cookies(mustURL(t, "https://other.example/")))
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "/", defaultPath(""))
	assert.Equal(t, "/", defaultPath("/login"))
	assert.Equal(t, "/api/auth", defaultPath("/api/auth/login"))
}

func TestTabMarker(t *testing.T) {
	store := newTestStore(t)
	tabA := NewTabMarker(store, "")
	tabB := NewTabMarker(store, "")
	require.NotEqual(t, tabA.TabID(), tabB.TabID())

	assert.False(t, tabA.Get())
	tabA.Set()
	assert.True(t, tabA.Get())
	assert.False(t, tabB.Get())

	reopened := NewTabMarker(store, tabA.TabID())
	assert.True(t, reopened.Get())

	tabA.Remove()
	assert.False(t, reopened.Get())
}

func TestTabMarker_SeedsAuthStore(t *testing.T) {
	store := newTestStore(t)
	marker := NewTabMarker(store, "tab-1")
	marker.Set()

	authStore := auth.NewStore(NewTabMarker(store, "tab-1"))
	assert.True(t, authStore.IsNewAccount())

	authStore.ClearAuth()
	assert.False(t, marker.Get())
}
