package storage

import "context"

// CredentialKey is the well-known key holding the raw session credential.
const CredentialKey = "token"

// CredentialStore is the persisted-credential lifecycle: Load at startup,
// Save on login or username change, Clear on logout or staleness.
// Load returns "" when nothing is stored. Clear is idempotent.
type CredentialStore struct {
	repo Repository
}

func NewCredentialStore(repo Repository) *CredentialStore {
	return &CredentialStore{repo: repo}
}

func (s *CredentialStore) Load(ctx context.Context) (string, error) {
	v, err := s.repo.Get(ctx, CredentialKey)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// Save stores raw and reports whether an earlier credential was replaced.
func (s *CredentialStore) Save(ctx context.Context, raw string) (replaced bool, err error) {
	old, err := s.repo.Swap(ctx, CredentialKey, []byte(raw))
	if err != nil {
		return false, err
	}
	return len(old) > 0, nil
}

func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, CredentialKey)
}
