package dbhelper

import (
	"github.com/havrebakery/bakery-api/database"
)

func InsertContactMessage(name, email, phone, subject, message string) error {
	_, err := database.Bakery.Exec(`
		INSERT INTO contact_messages (name, email, phone, subject, message)
		VALUES ($1, $2, $3, $4, $5)`,
		name, email, phone, subject, message)
	return err
}

// SubscribeNewsletter records the address; an already-subscribed email is not
// an error.
func SubscribeNewsletter(email string) error {
	_, err := database.Bakery.Exec(`
		INSERT INTO newsletter_subscribers (email)
		VALUES (LOWER($1))
		ON CONFLICT (email) DO NOTHING`, email)
	return err
}

func CountAllOrders() (int, error) {
	var count int
	err := database.Bakery.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count)
	return count, err
}

func CountActiveProducts() (int, error) {
	var count int
	err := database.Bakery.QueryRow(`SELECT COUNT(*) FROM products WHERE is_active`).Scan(&count)
	return count, err
}
