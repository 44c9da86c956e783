package auth

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"igtracker/pkg/config"
)

type memoryStore struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[string]Account)}
}

func (m *memoryStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Username] = *account
	return nil
}

func (m *memoryStore) Retrieve(username string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[username]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

func (m *memoryStore) List() ([]*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	accounts := make([]*Account, 0, len(m.accounts))
	for _, account := range m.accounts {
		acc := account
		accounts = append(accounts, &acc)
	}
	return accounts, nil
}

func (m *memoryStore) Delete(username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[username]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, username)
	return nil
}

func (m *memoryStore) Exists(username string) bool {
	_, err := m.Retrieve(username)
	return err == nil
}

func clearSessionEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"IGTRACKER_SESSION_ID", "IGTRACKER_CSRF_TOKEN", "IGTRACKER_DS_USER_ID", "IGTRACKER_USER_AGENT"} {
		t.Setenv(key, "")
	}
}

func testAccount(username string) *Account {
	return &Account{
		Username:  username,
		SessionID: "session_" + username + "_12345",
		CSRFToken: "csrf_" + username + "_67890",
		DSUserID:  "4242",
	}
}

func TestManager(t *testing.T) {
	store := newMemoryStore()
	manager := NewManagerWithStores(store)

	require.NoError(t, manager.Store(testAccount("alice")))
	assert.False(t, store.accounts["alice"].LastModified.IsZero())

	retrieved, err := manager.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "session_alice_12345", retrieved.SessionID)
	assert.Equal(t, "4242", retrieved.DSUserID)

	accounts, err := manager.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 1)

	require.NoError(t, manager.Delete("alice"))
	_, err = manager.Retrieve("alice")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	err = manager.Delete("alice")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerValidation(t *testing.T) {
	manager := NewManagerWithStores(newMemoryStore())

	assert.Error(t, manager.Store(nil))
	assert.Error(t, manager.Store(&Account{SessionID: "s", CSRFToken: "c"}))
	assert.Error(t, manager.Store(&Account{Username: "u", CSRFToken: "c"}))
	assert.Error(t, manager.Store(&Account{Username: "u", SessionID: "s"}))
}

func TestManagerFallsBackToNextStore(t *testing.T) {
	clearSessionEnv(t)
	memory := newMemoryStore()
	manager := NewManagerWithStores(NewEnvironmentStore(), memory)

	require.NoError(t, manager.Store(testAccount("bob")))
	assert.True(t, memory.Exists("bob"))

	empty := NewManagerWithStores(NewEnvironmentStore())
	assert.Error(t, empty.Store(testAccount("bob")))
}

func TestManagerListNewestFirst(t *testing.T) {
	first, second := newMemoryStore(), newMemoryStore()
	old := testAccount("alice")
	old.SessionID = "old_session_value"
	old.LastModified = time.Now().Add(-time.Hour)
	require.NoError(t, first.Store(old))

	fresh := testAccount("alice")
	fresh.LastModified = time.Now()
	require.NoError(t, second.Store(fresh))

	carol := testAccount("carol")
	carol.LastModified = time.Now().Add(-2 * time.Hour)
	require.NoError(t, second.Store(carol))

	manager := NewManagerWithStores(first, second)
	accounts, err := manager.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Username)
	assert.Equal(t, "session_alice_12345", accounts[0].SessionID)
	assert.Equal(t, "carol", accounts[1].Username)

	def, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "alice", def.Username)

	require.NoError(t, manager.DeleteAll())
	accounts, err = manager.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv("IGTRACKER_SESSION_ID", "env_session")
	t.Setenv("IGTRACKER_CSRF_TOKEN", "env_csrf")
	t.Setenv("IGTRACKER_DS_USER_ID", "99")

	memory := newMemoryStore()
	require.NoError(t, memory.Store(testAccount("alice")))
	manager := NewManagerWithStores(memory, NewEnvironmentStore())

	account, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "default", account.Username)
	assert.Equal(t, "env_session", account.SessionID)
	assert.Equal(t, "99", account.DSUserID)
}

func TestEnvironmentStore(t *testing.T) {
	clearSessionEnv(t)
	store := NewEnvironmentStore()

	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, store.Exists(""))
	accounts, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, accounts)

	t.Setenv("IGTRACKER_SESSION_ID", "env_session")
	t.Setenv("IGTRACKER_CSRF_TOKEN", "env_csrf")

	account, err := store.Retrieve("someone")
	require.NoError(t, err)
	assert.Equal(t, "someone", account.Username)
	assert.Equal(t, "env_csrf", account.CSRFToken)
	assert.True(t, store.Exists(""))

	assert.ErrorIs(t, store.Store(&Account{}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("someone"), ErrStoreUnavailable)
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds", "credentials.enc")
	store, err := NewEncryptedFileStore(path, "test_passphrase_123")
	require.NoError(t, err)

	_, err = store.Retrieve("alice")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Store(testAccount("alice")))
	require.NoError(t, store.Store(testAccount("bob")))

	retrieved, err := store.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "session_alice_12345", retrieved.SessionID)
	assert.True(t, store.Exists("bob"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(content, []byte("session_alice_12345")))
	assert.False(t, bytes.Contains(content, []byte("csrf_bob_67890")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	accounts, err := store.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	wrong, err := NewEncryptedFileStore(path, "another_passphrase")
	require.NoError(t, err)
	_, err = wrong.Retrieve("alice")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCredentialsNotFound)

	require.NoError(t, store.Delete("alice"))
	require.NoError(t, store.Delete("bob"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.ErrorIs(t, store.Delete("bob"), ErrCredentialsNotFound)
}

func TestEncryptedFileStorePassphraseFile(t *testing.T) {
	t.Setenv("IGTRACKER_PASSPHRASE", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "credentials.enc")

	store, err := NewEncryptedFileStore(path, "")
	require.NoError(t, err)
	require.NoError(t, store.Store(testAccount("alice")))

	_, err = os.Stat(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)

	reopened, err := NewEncryptedFileStore(path, "")
	require.NoError(t, err)
	account, err := reopened.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "csrf_alice_67890", account.CSRFToken)
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, store.Store(testAccount("alice")))
	require.NoError(t, store.Store(testAccount("bob")))
	require.NoError(t, store.Store(testAccount("alice")))

	account, err := store.Retrieve("alice")
	require.NoError(t, err)
	assert.Equal(t, "session_alice_12345", account.SessionID)

	accounts, err := store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "alice", accounts[0].Username)
	assert.Equal(t, "bob", accounts[1].Username)

	require.NoError(t, store.Delete("alice"))
	assert.False(t, store.Exists("alice"))
	assert.ErrorIs(t, store.Delete("alice"), ErrCredentialsNotFound)

	accounts, err = store.List()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "bob", accounts[0].Username)

	assert.ErrorIs(t, store.Store(&Account{}), ErrInvalidCredentials)
	_, err = store.Retrieve("")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestApplyAndResolveSession(t *testing.T) {
	clearSessionEnv(t)
	memory := newMemoryStore()
	stored := testAccount("alice")
	stored.UserAgent = "StoredAgent/1.0"
	require.NoError(t, memory.Store(stored))
	manager := NewManagerWithStores(memory)

	cfg := config.DefaultConfig()
	assert.True(t, ResolveSession(manager, cfg))
	assert.Equal(t, "session_alice_12345", cfg.Instagram.SessionID)
	assert.Equal(t, "csrf_alice_67890", cfg.Instagram.CSRFToken)
	assert.Equal(t, "4242", cfg.Instagram.DSUserID)
	assert.Equal(t, "StoredAgent/1.0", cfg.Instagram.UserAgent)

	cfg = config.DefaultConfig()
	cfg.Instagram.SessionID = "flag_session"
	cfg.Instagram.CSRFToken = "flag_csrf"
	assert.False(t, ResolveSession(manager, cfg))
	assert.Equal(t, "flag_session", cfg.Instagram.SessionID)

	cfg = config.DefaultConfig()
	cfg.Instagram.SessionID = "flag_session"
	stored.Apply(&cfg.Instagram)
	assert.Equal(t, "flag_session", cfg.Instagram.SessionID)
	assert.Equal(t, "csrf_alice_67890", cfg.Instagram.CSRFToken)

	assert.False(t, ResolveSession(NewManagerWithStores(newMemoryStore()), config.DefaultConfig()))
	assert.False(t, ResolveSession(nil, config.DefaultConfig()))
}

func TestSanitizeAccount(t *testing.T) {
	account := testAccount("alice")
	sanitized := SanitizeAccount(account)

	assert.Equal(t, "alice", sanitized.Username)
	assert.Equal(t, "sess...2345", sanitized.SessionID)
	assert.NotEqual(t, account.CSRFToken, sanitized.CSRFToken)
	assert.Equal(t, "********", maskString("short"))
	assert.Nil(t, SanitizeAccount(nil))
}

func TestWriteCookieGuide(t *testing.T) {
	var buf bytes.Buffer
	WriteCookieGuide(&buf)
	for _, name := range CookieNames {
		assert.Contains(t, buf.String(), name)
	}

	buf.Reset()
	WriteQuickGuide(&buf)
	assert.Contains(t, buf.String(), "sessionid, csrftoken, ds_user_id")
}
