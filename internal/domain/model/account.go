//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// Account is a self-hosted identity account. PasswordHash holds an encoded argon2id hash.
type Account struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	TokenVersion int       `db:"token_version"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
