package dbhelper

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/havrebakery/bakery-api/database"
	"github.com/havrebakery/bakery-api/models"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductInactive   = errors.New("product is not available")
	ErrInsufficientStock = errors.New("insufficient stock")
)

const productColumns = `id, name, description, price, category, images, ingredients,
	allergens, stock, is_active, is_featured, sales_count, rating_average,
	rating_count, preparation_time, tags, created_by, created_at, updated_at`

// allowed sort columns for list queries; anything else falls back to created_at
var productSortColumns = map[string]string{
	"name":       "name",
	"price":      "price",
	"stock":      "stock",
	"salesCount": "sales_count",
	"createdAt":  "created_at",
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row scanner) (*models.Product, error) {
	var p models.Product
	var images []byte
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &images,
		pq.Array(&p.Ingredients), pq.Array(&p.Allergens), &p.Stock, &p.IsActive,
		&p.IsFeatured, &p.SalesCount, &p.RatingAverage, &p.RatingCount,
		&p.PreparationTime, pq.Array(&p.Tags), &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, err
	}
	return &p, nil
}

type ProductFilter struct {
	Category     models.Category
	FeaturedOnly bool
	// FeaturedFirst floats featured products to the top of the sort order.
	FeaturedFirst bool
	ActiveOnly    bool
	MinPrice      *float64
	MaxPrice      *float64
	Search        string
	SortBy        string
	SortDesc      bool
	Limit         int
	Offset        int
}

func (f ProductFilter) where() (string, []interface{}) {
	clauses := []string{"TRUE"}
	var args []interface{}
	if f.ActiveOnly {
		clauses = append(clauses, "is_active")
	}
	if f.Category != "" {
		args = append(args, f.Category)
		clauses = append(clauses, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.FeaturedOnly {
		clauses = append(clauses, "is_featured")
	}
	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		clauses = append(clauses, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		clauses = append(clauses, fmt.Sprintf("price <= $%d", len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (f ProductFilter) orderBy() string {
	prefix := ""
	if f.FeaturedFirst {
		prefix = "is_featured DESC, "
	}
	column, ok := productSortColumns[f.SortBy]
	if !ok {
		return prefix + "created_at DESC"
	}
	if f.SortDesc {
		return prefix + column + " DESC"
	}
	return prefix + column + " ASC"
}

func ListProducts(filter ProductFilter) ([]models.Product, error) {
	where, args := filter.where()
	query := fmt.Sprintf(`
		SELECT %s FROM products
		WHERE %s
		ORDER BY %s`,
		productColumns, where, filter.orderBy())
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, filter.Offset)
	}

	rows, err := database.Bakery.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func CountProducts(filter ProductFilter) (int, error) {
	where, args := filter.where()
	var count int
	err := database.Bakery.QueryRow(`SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&count)
	return count, err
}

func GetProductByID(id uuid.UUID) (*models.Product, error) {
	p, err := scanProduct(database.Bakery.QueryRow(`
		SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	return p, err
}

func CreateProduct(in models.ProductInput, createdBy uuid.UUID) (*models.Product, error) {
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	preparationTime := in.PreparationTime
	if preparationTime == 0 {
		preparationTime = 30
	}
	return scanProduct(database.Bakery.QueryRow(`
		INSERT INTO products (name, description, price, category, ingredients,
			allergens, stock, is_active, is_featured, preparation_time, tags, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+productColumns,
		in.Name, in.Description, in.Price, in.Category,
		pq.Array(emptyIfNil(in.Ingredients)), pq.Array(emptyIfNil(in.Allergens)),
		in.Stock, isActive, in.IsFeatured, preparationTime,
		pq.Array(emptyIfNil(in.Tags)), createdBy))
}

func UpdateProduct(id uuid.UUID, in models.ProductInput) (*models.Product, error) {
	isActive := true
	if in.IsActive != nil {
		isActive = *in.IsActive
	}
	p, err := scanProduct(database.Bakery.QueryRow(`
		UPDATE products
		SET name = $2, description = $3, price = $4, category = $5, ingredients = $6,
			allergens = $7, stock = $8, is_active = $9, is_featured = $10,
			preparation_time = $11, tags = $12, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		id, in.Name, in.Description, in.Price, in.Category,
		pq.Array(emptyIfNil(in.Ingredients)), pq.Array(emptyIfNil(in.Allergens)),
		in.Stock, isActive, in.IsFeatured, in.PreparationTime,
		pq.Array(emptyIfNil(in.Tags))))
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	return p, err
}

func DeleteProduct(id uuid.UUID) error {
	result, err := database.Bakery.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func UpdateProductImages(id uuid.UUID, images []models.ProductImage) error {
	if images == nil {
		images = []models.ProductImage{}
	}
	encoded, err := json.Marshal(images)
	if err != nil {
		return err
	}
	result, err := database.Bakery.Exec(`
		UPDATE products SET images = $2, updated_at = now() WHERE id = $1`, id, encoded)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// UpdateStock is the explicit admin stock override.
func UpdateStock(id uuid.UUID, quantity int) (*models.Product, error) {
	p, err := scanProduct(database.Bakery.QueryRow(`
		UPDATE products SET stock = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns, id, quantity))
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	return p, err
}

// ListFeaturedProducts ranks the featured selection by rating first and sales
// count second.
func ListFeaturedProducts(limit int) ([]models.Product, error) {
	rows, err := database.Bakery.Query(`
		SELECT `+productColumns+` FROM products
		WHERE is_active AND is_featured
		ORDER BY rating_average DESC, sales_count DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func ListLowStockProducts(threshold int) ([]models.Product, error) {
	rows, err := database.Bakery.Query(`
		SELECT `+productColumns+` FROM products
		WHERE is_active AND stock <= $1
		ORDER BY stock ASC`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func DistinctCategories(activeOnly bool) ([]models.Category, error) {
	query := `SELECT DISTINCT category FROM products`
	if activeOnly {
		query += ` WHERE is_active`
	}
	rows, err := database.Bakery.Query(query + ` ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetProductForOrder reads the fields the placement flow needs inside its
// transaction.
func GetProductForOrder(tx *sql.Tx, id uuid.UUID) (name string, category models.Category, isActive bool, err error) {
	err = tx.QueryRow(`
		SELECT name, category, is_active FROM products WHERE id = $1`, id).
		Scan(&name, &category, &isActive)
	if err == sql.ErrNoRows {
		err = ErrProductNotFound
	}
	return name, category, isActive, err
}

// ReserveStock decrements stock and bumps the sales count in one conditional
// update, so the check and the decrement cannot race: a row only matches when
// it still has enough stock.
func ReserveStock(tx *sql.Tx, productID uuid.UUID, quantity int) error {
	result, err := tx.Exec(`
		UPDATE products
		SET stock = stock - $2, sales_count = sales_count + $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`,
		productID, quantity)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStock reverses a reservation when a non-cancelled order is deleted.
func RestoreStock(tx *sql.Tx, productID uuid.UUID, quantity int) error {
	_, err := tx.Exec(`
		UPDATE products
		SET stock = stock + $2, sales_count = sales_count - $2, updated_at = now()
		WHERE id = $1`,
		productID, quantity)
	return err
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
