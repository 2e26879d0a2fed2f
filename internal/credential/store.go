// Package credential holds the legacy credential pair for the secondary
// file-sync service, which has not migrated to session-based auth. The
// web frontend this client replaces stored the secret reversibly
// encoded in browser storage; here the secret goes to the platform
// keyring and only non-secret metadata (username, last validation time)
// is written to local state.
package credential

import (
	"context"
	"errors"
	"time"

	"github.com/bheem-platform/workspace-cli/internal/localstate"
	"github.com/bheem-platform/workspace-cli/internal/model"
)

// keyringSecret is the keyring entry holding the file-sync secret.
const keyringSecret = "filesync-secret"

// ErrNoCredentials is returned by Get when nothing has been stored.
var ErrNoCredentials = errors.New("credential: no stored credentials")

// Secrets abstracts the platform keyring so tests can substitute an
// in-memory implementation.
type Secrets interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// systemKeyring is the production Secrets backed by 99designs/keyring.
type systemKeyring struct{}

func (systemKeyring) Get(key string) (string, error) { return get(key) }
func (systemKeyring) Set(key, value string) error    { return set(key, value) }
func (systemKeyring) Delete(key string) error        { return del(key) }

// SystemKeyring returns the Secrets implementation backed by the
// platform key store.
func SystemKeyring() Secrets { return systemKeyring{} }

// Store manages the legacy credential record: secret in the keyring,
// metadata in local state.
type Store struct {
	secrets Secrets
	state   *localstate.Store
	now     func() time.Time
}

// NewStore builds a credential store. Pass SystemKeyring() outside of
// tests.
func NewStore(secrets Secrets, state *localstate.Store) *Store {
	return &Store{secrets: secrets, state: state, now: time.Now}
}

// WithClock overrides the time source used for lastValidated stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Set stores the credential pair and stamps lastValidated with the
// current time.
func (s *Store) Set(ctx context.Context, username, secret string) error {
	if err := s.secrets.Set(keyringSecret, secret); err != nil {
		return err
	}
	meta := model.CredentialMeta{
		Username:      username,
		LastValidated: s.now(),
	}
	return s.state.Set(ctx, localstate.KeyCredentialMeta, meta)
}

// Get returns the stored credential pair. Returns ErrNoCredentials when
// no record exists.
func (s *Store) Get(ctx context.Context) (username, secret string, err error) {
	meta, err := s.Meta(ctx)
	if err != nil {
		return "", "", err
	}
	sec, err := s.secrets.Get(keyringSecret)
	if err != nil {
		return "", "", err
	}
	return meta.Username, sec, nil
}

// Meta returns the non-secret credential metadata.
func (s *Store) Meta(ctx context.Context) (model.CredentialMeta, error) {
	var meta model.CredentialMeta
	err := s.state.Get(ctx, localstate.KeyCredentialMeta, &meta)
	if errors.Is(err, localstate.ErrNotFound) {
		return meta, ErrNoCredentials
	}
	return meta, err
}

// MarkValidated refreshes the lastValidated stamp, e.g. after a
// successful connection to the file-sync service.
func (s *Store) MarkValidated(ctx context.Context) error {
	meta, err := s.Meta(ctx)
	if err != nil {
		return err
	}
	meta.LastValidated = s.now()
	return s.state.Set(ctx, localstate.KeyCredentialMeta, meta)
}

// Stale reports whether the stored credential is past the 24-hour
// validation window. Missing credentials report stale. The result is
// advisory: the UI uses it to prompt for re-entry, nothing enforces it.
func (s *Store) Stale(ctx context.Context) bool {
	meta, err := s.Meta(ctx)
	if err != nil {
		return true
	}
	return meta.Stale(s.now())
}

// Delete removes both the secret and the metadata.
func (s *Store) Delete(ctx context.Context) error {
	if err := s.secrets.Delete(keyringSecret); err != nil {
		return err
	}
	return s.state.Delete(ctx, localstate.KeyCredentialMeta)
}
