// Package ingest provides the adapter-facing ingestion bounded context.
// It handles adapter API key management and inbound engagement events from
// the platform adapters (outreach, CRM, network, visitor identification).
package ingest

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAPIKeyNotFound = errors.New("adapter API key not found")

// APIKey represents an adapter API key stored in the database. Source binds
// the key to the event source it may submit for, so a compromised website
// key cannot forge CRM activity. An empty Source is an unbound key: it may
// claim any source, but its events are never marked verified.
type APIKey struct {
	ID        uuid.UUID
	Name      string
	Source    string
	KeyHash   string
	KeyPrefix string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides data access for adapter API keys.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new ingest repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GenerateAPIKey creates a new random API key and returns the plaintext key
// and its hash. The plaintext key is returned only once; only the hash is
// stored.
func GenerateAPIKey() (plaintext string, hash string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}
	plaintext = "adp_" + hex.EncodeToString(bytes)
	h := sha256.Sum256([]byte(plaintext))
	hash = hex.EncodeToString(h[:])
	prefix = plaintext[:12] // "adp_" + 8 hex chars
	return plaintext, hash, prefix, nil
}

// HashKey hashes a plaintext API key for lookup.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

// Create creates a new API key record.
func (r *Repository) Create(ctx context.Context, name, source, keyHash, keyPrefix string) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, `
		INSERT INTO adapter_api_keys (name, source, key_hash, key_prefix)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, source, key_hash, key_prefix, is_active, created_at, updated_at
	`, name, source, keyHash, keyPrefix).Scan(
		&key.ID, &key.Name, &key.Source, &key.KeyHash, &key.KeyPrefix,
		&key.IsActive, &key.CreatedAt, &key.UpdatedAt,
	)
	return key, err
}

// GetByHash retrieves an active API key by its hash.
func (r *Repository) GetByHash(ctx context.Context, keyHash string) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, source, key_hash, key_prefix, is_active, created_at, updated_at
		FROM adapter_api_keys
		WHERE key_hash = $1 AND is_active = true
	`, keyHash).Scan(
		&key.ID, &key.Name, &key.Source, &key.KeyHash, &key.KeyPrefix,
		&key.IsActive, &key.CreatedAt, &key.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return APIKey{}, ErrAPIKeyNotFound
	}
	return key, err
}

// List returns all API keys, newest first.
func (r *Repository) List(ctx context.Context) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, source, key_hash, key_prefix, is_active, created_at, updated_at
		FROM adapter_api_keys
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var key APIKey
		if err := rows.Scan(
			&key.ID, &key.Name, &key.Source, &key.KeyHash, &key.KeyPrefix,
			&key.IsActive, &key.CreatedAt, &key.UpdatedAt,
		); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Revoke deactivates an API key. Revoked keys stay on record for audit.
func (r *Repository) Revoke(ctx context.Context, keyID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE adapter_api_keys SET is_active = false, updated_at = $2 WHERE id = $1
	`, keyID, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}
