package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fernet/fernet-go"

	"github.com/lmeira/carteira-core/internal/apperrors"
)

// providerTokenKey is the settings row holding the quote provider API token.
const providerTokenKey = "provider_token"

// SettingsRepository reads application settings. Sensitive values are stored
// fernet-encrypted; the key comes from configuration.
type SettingsRepository struct {
	db  *sql.DB
	key *fernet.Key
}

// NewSettingsRepository creates a SettingsRepository. fernetKey may be empty,
// in which case encrypted settings are unavailable.
func NewSettingsRepository(db *sql.DB, fernetKey string) (*SettingsRepository, error) {
	repo := &SettingsRepository{db: db}

	if fernetKey != "" {
		key, err := fernet.DecodeKey(fernetKey)
		if err != nil {
			return nil, fmt.Errorf("failed to decode fernet key: %w", err)
		}
		repo.key = key
	}

	return repo, nil
}

// ProviderToken returns the decrypted quote provider API token.
// Returns apperrors.ErrSettingNotFound when no token is stored.
func (r *SettingsRepository) ProviderToken() (string, error) {
	if r.key == nil {
		return "", apperrors.ErrMissingFernetKey
	}

	var encrypted string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, providerTokenKey).Scan(&encrypted)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.ErrSettingNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query settings table: %w", err)
	}

	// Negative TTL: stored tokens do not expire.
	token := fernet.VerifyAndDecrypt([]byte(encrypted), -1, []*fernet.Key{r.key})
	if token == nil {
		return "", fmt.Errorf("failed to decrypt %s setting", providerTokenKey)
	}

	return string(token), nil
}

// SetProviderToken encrypts and stores the quote provider API token. Used by
// the admin seeding tooling and tests; the aggregation core never writes it.
func (r *SettingsRepository) SetProviderToken(token string) error {
	if r.key == nil {
		return apperrors.ErrMissingFernetKey
	}

	encrypted, err := fernet.EncryptAndSign([]byte(token), r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s setting: %w", providerTokenKey, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, providerTokenKey, string(encrypted))
	if err != nil {
		return fmt.Errorf("failed to store %s setting: %w", providerTokenKey, err)
	}

	return nil
}
