package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/utils"
)

// UserRecord is a users row including the password hash, which never
// leaves the server.
type UserRecord struct {
	model.User
	PasswordHash string
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = "id,email,password_hash,full_name,role,astronaut_id,avatar_url,created_at,last_login"

// Create hashes password, inserts u and fills its ID and CreatedAt.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	var avatar sql.NullString
	if u.AvatarURL != nil {
		avatar = sql.NullString{String: *u.AvatarURL, Valid: true}
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users ("+userCols+") VALUES (?,?,?,?,?,?,?,?,?)",
		u.ID, u.Email, hash, u.FullName, u.Role, u.AstronautID, avatar, micros(u.CreatedAt), nullMicros(u.LastLogin))
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (UserRecord, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (UserRecord, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userCols+" FROM users WHERE id=? LIMIT 1", id))
}

// TouchLogin records a successful login.
func (r *UserRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET last_login=? WHERE id=?", micros(at), id)
	return err
}

// UpdateProfile applies the non-nil fields of p and returns the new row.
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, p model.ProfileUpdate) (model.User, error) {
	if p.FullName != nil {
		if _, err := r.DB.ExecContext(ctx, "UPDATE users SET full_name=? WHERE id=?", strings.TrimSpace(*p.FullName), id); err != nil {
			return model.User{}, err
		}
	}
	if p.AvatarURL != nil {
		if _, err := r.DB.ExecContext(ctx, "UPDATE users SET avatar_url=? WHERE id=?", *p.AvatarURL, id); err != nil {
			return model.User{}, err
		}
	}
	rec, err := r.GetByID(ctx, id)
	return rec.User, err
}

func (r *UserRepo) scanOne(row *sql.Row) (UserRecord, error) {
	var (
		u         UserRecord
		avatar    sql.NullString
		createdAt int64
		lastLogin sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.AstronautID, &avatar, &createdAt, &lastLogin)
	if err != nil {
		return UserRecord{}, notFound(err)
	}
	if avatar.Valid {
		u.AvatarURL = &avatar.String
	}
	u.CreatedAt = fromMicros(createdAt)
	u.LastLogin = fromNullMicros(lastLogin)
	return u, nil
}
