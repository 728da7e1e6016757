package dbhelper

import (
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/havrebakery/bakery-api/database"
	"github.com/havrebakery/bakery-api/models"
)

const userColumns = `id, username, email, password, role, first_name, last_name, phone,
	is_active, refresh_token, last_login, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Role, &u.FirstName,
		&u.LastName, &u.Phone, &u.IsActive, &u.RefreshToken, &u.LastLogin,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func IsUserExists(username, email string) (bool, error) {
	var count int
	err := database.Bakery.QueryRow(`
		SELECT COUNT(*) FROM users
		WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($2)`,
		username, email).Scan(&count)
	return count > 0, err
}

func CreateUser(tx *sql.Tx, username, email, hashedPassword string, role models.Role, firstName, lastName string) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRow(`
		INSERT INTO users (username, email, password, role, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		username, email, hashedPassword, role, firstName, lastName).Scan(&id)
	return id, err
}

func GetUserByID(id uuid.UUID) (*models.User, error) {
	return scanUser(database.Bakery.QueryRow(`
		SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByLogin matches either the username or the email, case-insensitively.
func GetUserByLogin(login string) (*models.User, error) {
	return scanUser(database.Bakery.QueryRow(`
		SELECT `+userColumns+` FROM users
		WHERE LOWER(username) = LOWER($1) OR LOWER(email) = LOWER($1)`, login))
}

func SetRefreshToken(id uuid.UUID, refreshToken string) error {
	_, err := database.Bakery.Exec(`
		UPDATE users SET refresh_token = $2, updated_at = now() WHERE id = $1`,
		id, refreshToken)
	return err
}

func TouchLastLogin(id uuid.UUID, refreshToken string) error {
	_, err := database.Bakery.Exec(`
		UPDATE users SET last_login = now(), refresh_token = $2, updated_at = now()
		WHERE id = $1`,
		id, refreshToken)
	return err
}

func ClearRefreshToken(id uuid.UUID) error {
	_, err := database.Bakery.Exec(`
		UPDATE users SET refresh_token = '', updated_at = now() WHERE id = $1`, id)
	return err
}

func UpdateProfile(id uuid.UUID, email, firstName, lastName, phone string) (*models.User, error) {
	return scanUser(database.Bakery.QueryRow(`
		UPDATE users
		SET email = $2, first_name = $3, last_name = $4, phone = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, email, firstName, lastName, phone))
}

func CountNewCustomers(from, to time.Time) (int, error) {
	var count int
	err := database.Bakery.QueryRow(`
		SELECT COUNT(*) FROM users
		WHERE role = $1 AND created_at >= $2 AND created_at < $3`,
		models.RoleCustomer, from, to).Scan(&count)
	return count, err
}

// EnsureAdminUser seeds the admin account on first boot.
func EnsureAdminUser(username, email, hashedPassword string) error {
	_, err := database.Bakery.Exec(`
		INSERT INTO users (username, email, password, role, first_name, last_name)
		VALUES ($1, $2, $3, $4, 'Admin', 'User')
		ON CONFLICT (username) DO NOTHING`,
		username, email, hashedPassword, models.RoleAdmin)
	return err
}
