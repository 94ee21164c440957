package userstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Account is a chat user's wallet record. PrivateKey holds the hex seed,
// encrypted at rest when the store has a cipher.
type Account struct {
	UserID     string    `db:"user_id"`
	PublicKey  string    `db:"public_key"`
	PrivateKey string    `db:"private_key"`
	InProgress bool      `db:"in_progress"`
	CreatedAt  time.Time `db:"created_at"`
}

// Store persists accounts keyed by the chat transport's user id.
type Store interface {
	// FindByUserID returns (nil, nil) when the user is unknown.
	FindByUserID(ctx context.Context, userID string) (*Account, error)
	Insert(ctx context.Context, account *Account) error
	// Upsert overwrites the keypair; used by the import flow.
	Upsert(ctx context.Context, account *Account) error
	SetInProgress(ctx context.Context, userID string, inProgress bool) error
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id     TEXT PRIMARY KEY,
	public_key  TEXT NOT NULL,
	private_key TEXT NOT NULL,
	in_progress BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type Postgres struct {
	db     *sqlx.DB
	cipher *Cipher
}

func NewPostgres(databaseURL string, cipher *Cipher) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &Postgres{db: db, cipher: cipher}, nil
}

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) FindByUserID(ctx context.Context, userID string) (*Account, error) {
	var account Account
	err := p.db.GetContext(ctx, &account,
		`SELECT user_id, public_key, private_key, in_progress, created_at FROM users WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if p.cipher != nil {
		plain, err := p.cipher.Decrypt(account.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("decrypt private key for %s: %w", userID, err)
		}
		account.PrivateKey = plain
	}
	return &account, nil
}

func (p *Postgres) Insert(ctx context.Context, account *Account) error {
	key, err := p.sealKey(account.PrivateKey)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO users (user_id, public_key, private_key, in_progress) VALUES ($1, $2, $3, $4)`,
		account.UserID, account.PublicKey, key, account.InProgress)
	return err
}

func (p *Postgres) Upsert(ctx context.Context, account *Account) error {
	key, err := p.sealKey(account.PrivateKey)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO users (user_id, public_key, private_key, in_progress) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET public_key = $2, private_key = $3, in_progress = $4`,
		account.UserID, account.PublicKey, key, account.InProgress)
	return err
}

func (p *Postgres) SetInProgress(ctx context.Context, userID string, inProgress bool) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE users SET in_progress = $2 WHERE user_id = $1`, userID, inProgress)
	return err
}

func (p *Postgres) sealKey(plain string) (string, error) {
	if p.cipher == nil {
		return plain, nil
	}
	return p.cipher.Encrypt(plain)
}
