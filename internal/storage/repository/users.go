package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/account-service/internal/models"
)

// userColumns — общий список полей, которые вычитываются во всех выборках.
const userColumns = `uid, name, email, photo, role, password_hash, active, email_verified,
	password_changed_at, password_reset_token, password_reset_expires,
	email_verification_token, email_verification_expires, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var changedAt, resetExpires, verifyExpires sql.NullTime
	var resetToken, verifyToken sql.NullString
	if err := row.Scan(&u.UID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.PasswordHash,
		&u.Active, &u.EmailVerified, &changedAt, &resetToken, &resetExpires,
		&verifyToken, &verifyExpires, &u.CreatedAt); err != nil {
		return nil, err
	}
	if changedAt.Valid {
		u.PasswordChangedAt = &changedAt.Time
	}
	if resetToken.Valid {
		u.PasswordResetToken = &resetToken.String
	}
	if resetExpires.Valid {
		u.PasswordResetExpires = &resetExpires.Time
	}
	if verifyToken.Valid {
		u.EmailVerificationToken = &verifyToken.String
	}
	if verifyExpires.Valid {
		u.EmailVerificationExpires = &verifyExpires.Time
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его UID.
//
// Поля одноразового токена записываются сразу при создании, чтобы хэш
// токена подтверждения оказался в базе до отправки письма.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "repository.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	newUID := uuid.New().String()
	query := `INSERT INTO users (uid, name, email, photo, role, password_hash, active,
			      email_verified, email_verification_token, email_verification_expires)
			  VALUES ($1, $2, $3, COALESCE(NULLIF($4, ''), 'default.jpg'), $5, $6, TRUE, $7, $8, $9)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		newUID, user.Name, user.Email, user.Photo, user.Role, user.PasswordHash,
		user.EmailVerified, user.EmailVerificationToken, user.EmailVerificationExpires).Scan(&newUID); err != nil {
		return "", translateError(op, err)
	}
	return newUID, nil
}

// GetUserByUID возвращает активного пользователя по его UID.
func (s *Storage) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "repository.GetUserByUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1 AND active`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, translateError(op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает активного пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "repository.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1 AND active`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, translateError(op, err)
	}
	return u, nil
}

// GetUserByEmailAndVerified возвращает активного пользователя по email
// с заданным состоянием подтверждения почты.
func (s *Storage) GetUserByEmailAndVerified(ctx context.Context, email string, verified bool) (*models.User, error) {
	const op = "repository.GetUserByEmailAndVerified"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1 AND email_verified = $2 AND active`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email, verified))
	if err != nil {
		return nil, translateError(op, err)
	}
	return u, nil
}

// GetUserByResetToken ищет активного пользователя по хэшу токена сброса
// пароля, срок действия которого строго позже now. Токен, чей срок равен
// now, уже считается истекшим.
func (s *Storage) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	const op = "repository.GetUserByResetToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE password_reset_token = $1 AND password_reset_expires > $2 AND active`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, tokenHash, now))
	if err != nil {
		return nil, translateError(op, err)
	}
	return u, nil
}

// GetUserByVerificationToken ищет активного пользователя по хэшу токена
// подтверждения почты с теми же правилами срока, что и GetUserByResetToken.
func (s *Storage) GetUserByVerificationToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	const op = "repository.GetUserByVerificationToken"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email_verification_token = $1 AND email_verification_expires > $2 AND active`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, tokenHash, now))
	if err != nil {
		return nil, translateError(op, err)
	}
	return u, nil
}

// SetResetToken записывает хэш токена сброса пароля и срок его действия,
// перезаписывая предыдущий токен, если он был.
func (s *Storage) SetResetToken(ctx context.Context, userUID, tokenHash string, expires time.Time) error {
	const op = "repository.SetResetToken"
	return s.execForUser(ctx, op, `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires = $3
		WHERE uid = $1 AND active`, userUID, tokenHash, expires)
}

// ClearResetToken очищает поля токена сброса пароля.
// Используется и при откате после неудачной отправки письма.
func (s *Storage) ClearResetToken(ctx context.Context, userUID string) error {
	const op = "repository.ClearResetToken"
	return s.execForUser(ctx, op, `
		UPDATE users
		SET password_reset_token = NULL, password_reset_expires = NULL
		WHERE uid = $1 AND active`, userUID)
}

// SetVerificationToken записывает хэш токена подтверждения почты,
// перезаписывая предыдущий (повторная отправка делает старый токен недействительным).
func (s *Storage) SetVerificationToken(ctx context.Context, userUID, tokenHash string, expires time.Time) error {
	const op = "repository.SetVerificationToken"
	return s.execForUser(ctx, op, `
		UPDATE users
		SET email_verification_token = $2, email_verification_expires = $3
		WHERE uid = $1 AND active`, userUID, tokenHash, expires)
}

// ClearVerificationToken очищает поля токена подтверждения почты.
func (s *Storage) ClearVerificationToken(ctx context.Context, userUID string) error {
	const op = "repository.ClearVerificationToken"
	return s.execForUser(ctx, op, `
		UPDATE users
		SET email_verification_token = NULL, email_verification_expires = NULL
		WHERE uid = $1 AND active`, userUID)
}

// MarkEmailVerified помечает почту подтвержденной и одним оператором
// очищает поля токена: токен одноразовый.
func (s *Storage) MarkEmailVerified(ctx context.Context, userUID string) error {
	const op = "repository.MarkEmailVerified"
	return s.execForUser(ctx, op, `
		UPDATE users
		SET email_verified = TRUE,
		    email_verification_token = NULL,
		    email_verification_expires = NULL
		WHERE uid = $1 AND active`, userUID)
}

// UpdatePassword заменяет хэш пароля, фиксирует момент смены и той же
// командой очищает поля токена сброса.
func (s *Storage) UpdatePassword(ctx context.Context, userUID, passwordHash string, changedAt time.Time) error {
	const op = "repository.UpdatePassword"
	return s.execForUser(ctx, op, `
		UPDATE users
		SET password_hash = $2,
		    password_changed_at = $3,
		    password_reset_token = NULL,
		    password_reset_expires = NULL
		WHERE uid = $1 AND active`, userUID, passwordHash, changedAt)
}

// UpdateProfile обновляет имя, email и фото пользователя и возвращает
// обновленную запись.
func (s *Storage) UpdateProfile(ctx context.Context, userUID, name, email, photo string) (*models.User, error) {
	const op = "repository.UpdateProfile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET name = COALESCE(NULLIF($2, ''), name),
			      email = COALESCE(NULLIF($3, ''), email),
			      photo = COALESCE(NULLIF($4, ''), photo)
			  WHERE uid = $1 AND active
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID, name, email, photo))
	if err != nil {
		return nil, translateError(op, err)
	}
	return u, nil
}

// UpdateUser обновляет имя, email и роль пользователя (административная
// операция) и возвращает обновленную запись.
func (s *Storage) UpdateUser(ctx context.Context, userUID, name, email, role string) (*models.User, error) {
	const op = "repository.UpdateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET name = COALESCE(NULLIF($2, ''), name),
			      email = COALESCE(NULLIF($3, ''), email),
			      role = COALESCE(NULLIF($4, ''), role)
			  WHERE uid = $1 AND active
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID, name, email, role))
	if err != nil {
		return nil, translateError(op, err)
	}
	return u, nil
}

// DeactivateUser выполняет мягкое удаление: строка остается в базе,
// но перестает существовать для всех операций чтения.
func (s *Storage) DeactivateUser(ctx context.Context, userUID string) error {
	const op = "repository.DeactivateUser"
	return s.execForUser(ctx, op, `
		UPDATE users
		SET active = FALSE
		WHERE uid = $1 AND active`, userUID)
}

// ListUsers возвращает страницу активных пользователей.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "repository.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE active
			  ORDER BY created_at
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// execForUser выполняет обновление одной записи; отсутствие затронутых
// строк означает, что активного пользователя с таким UID нет.
func (s *Storage) execForUser(ctx context.Context, op, query string, args ...any) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return translateError(op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}
