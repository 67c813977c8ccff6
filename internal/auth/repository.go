package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

const userColumns = `id, email, password_hash, full_name, role,
	COALESCE(avatar_url,''), COALESCE(bio,''), COALESCE(reset_token,''), reset_expires, reset_used,
	created_at, updated_at`

// Repository handles user persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &role,
		&u.AvatarURL, &u.Bio, &u.ResetToken, &u.ResetExpires, &u.ResetUsed, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, email, passwordHash, fullName string, role models.Role) (*models.User, error) {
	const q = `INSERT INTO users (email, password_hash, full_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns
	return scanUser(r.pool.QueryRow(ctx, q, email, passwordHash, fullName, string(role)))
}

// UpdateProfile sets avatar URL and bio.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, avatarURL, bio string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET avatar_url = NULLIF($2,''), bio = NULLIF($3,''), updated_at = NOW() WHERE id = $1`,
		id, avatarURL, bio)
	return err
}

// SetResetToken stores a fresh password-reset token for the user.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token = $2, reset_expires = $3, reset_used = FALSE, updated_at = NOW() WHERE id = $1`,
		id, token, expires)
	return err
}

// GetByResetToken returns the user holding an unused, unexpired reset token.
func (r *Repository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users
		WHERE reset_token = $1 AND reset_used = FALSE AND reset_expires > NOW()`
	return scanUser(r.pool.QueryRow(ctx, q, token))
}

// ConsumeResetToken sets the new password hash and marks the token used.
func (r *Repository) ConsumeResetToken(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, reset_used = TRUE, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	return err
}
