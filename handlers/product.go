package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/havrebakery/bakery-api/config"
	"github.com/havrebakery/bakery-api/database/dbhelper"
	"github.com/havrebakery/bakery-api/middlewares"
	"github.com/havrebakery/bakery-api/models"
	"github.com/havrebakery/bakery-api/utils"
)

func parsePagination(r *http.Request, defaultLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}

func paginationPayload(page, limit, total int) map[string]interface{} {
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return map[string]interface{}{
		"current":  page,
		"pageSize": limit,
		"total":    total,
		"pages":    pages,
	}
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func productFilterFromQuery(r *http.Request) dbhelper.ProductFilter {
	q := r.URL.Query()
	filter := dbhelper.ProductFilter{
		ActiveOnly:   true,
		Category:     models.Category(q.Get("category")),
		FeaturedOnly: q.Get("featured") == "true",
		SortBy:       q.Get("sortBy"),
		SortDesc:     q.Get("sortOrder") == "desc",
	}
	if v, err := strconv.ParseFloat(q.Get("minPrice"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("maxPrice"), 64); err == nil {
		filter.MaxPrice = &v
	}
	return filter
}

func GetProducts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 10)
	filter := productFilterFromQuery(r)
	filter.Limit = limit
	filter.Offset = offset

	products, err := dbhelper.ListProducts(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to list products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting products")
		return
	}
	total, err := dbhelper.CountProducts(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to count products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting products")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"products":   products,
		"pagination": paginationPayload(page, limit, total),
	})
}

func GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := dbhelper.GetProductByID(id)
	if errors.Is(err, dbhelper.ErrProductNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Product not found")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to get product")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting product")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"product": product,
	})
}

func CreateProduct(w http.ResponseWriter, r *http.Request) {
	user, err := middlewares.GetAuthenticatedUser(r)
	if err != nil {
		utils.RespondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var in models.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := in.Validate(); len(errs) > 0 {
		utils.RespondValidationErrors(w, errs)
		return
	}

	product, err := dbhelper.CreateProduct(in, user.ID)
	if err != nil {
		logrus.WithError(err).Error("failed to create product")
		utils.RespondError(w, http.StatusInternalServerError, "Server error creating product")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Product created successfully",
		"product": product,
	})
}

func UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var in models.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := in.Validate(); len(errs) > 0 {
		utils.RespondValidationErrors(w, errs)
		return
	}

	product, err := dbhelper.UpdateProduct(id, in)
	if errors.Is(err, dbhelper.ErrProductNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Product not found")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to update product")
		utils.RespondError(w, http.StatusInternalServerError, "Server error updating product")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Product updated successfully",
		"product": product,
	})
}

// DeleteProduct hard-deletes the catalog entry and removes its image files
// from the upload directory. Normal removal from browsing goes through the
// isActive flag instead.
func DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := dbhelper.GetProductByID(id)
	if errors.Is(err, dbhelper.ErrProductNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Product not found")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to load product for delete")
		utils.RespondError(w, http.StatusInternalServerError, "Server error deleting product")
		return
	}

	if err := dbhelper.DeleteProduct(id); err != nil {
		logrus.WithError(err).Error("failed to delete product")
		utils.RespondError(w, http.StatusInternalServerError, "Server error deleting product")
		return
	}

	// only unlink the uploads once the row is gone, so a failed delete
	// leaves the product intact
	for _, image := range product.Images {
		removeImageFile(image.URL)
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Product deleted successfully",
	})
}

func DeleteProductImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}
	imageID, err := pathID(r, "imageId")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid image ID")
		return
	}

	product, err := dbhelper.GetProductByID(id)
	if errors.Is(err, dbhelper.ErrProductNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Product not found")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to load product")
		utils.RespondError(w, http.StatusInternalServerError, "Server error deleting image")
		return
	}

	images, removed := models.RemoveImage(product.Images, imageID)
	if removed == nil {
		utils.RespondError(w, http.StatusNotFound, "Image not found")
		return
	}

	removeImageFile(removed.URL)

	if err := dbhelper.UpdateProductImages(id, images); err != nil {
		logrus.WithError(err).Error("failed to update product images")
		utils.RespondError(w, http.StatusInternalServerError, "Server error deleting image")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Image deleted successfully",
	})
}

// removeImageFile unlinks a stored upload; a missing file is not an error.
func removeImageFile(url string) {
	name := filepath.Base(filepath.Clean(url))
	if name == "." || name == "/" {
		return
	}
	path := filepath.Join(config.UploadDir, "products", name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warnf("failed to remove image file %s", path)
	}
}

func GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := dbhelper.DistinctCategories(false)
	if err != nil {
		logrus.WithError(err).Error("failed to list categories")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting categories")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"categories": categories,
	})
}

func SearchProducts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 10)
	filter := productFilterFromQuery(r)
	filter.Search = r.URL.Query().Get("q")
	filter.Limit = limit
	filter.Offset = offset

	products, err := dbhelper.ListProducts(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to search products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error searching products")
		return
	}
	total, err := dbhelper.CountProducts(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to count products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error searching products")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"products":   products,
		"total":      total,
		"pagination": paginationPayload(page, limit, total),
	})
}

func UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	type request struct {
		Quantity *int `json:"quantity"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Quantity == nil || *req.Quantity < 0 {
		utils.RespondValidationErrors(w, []models.FieldError{
			{Field: "quantity", Message: "Quantity must be a non-negative integer"},
		})
		return
	}

	product, err := dbhelper.UpdateStock(id, *req.Quantity)
	if errors.Is(err, dbhelper.ErrProductNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Product not found")
		return
	} else if err != nil {
		logrus.WithError(err).Error("failed to update stock")
		utils.RespondError(w, http.StatusInternalServerError, "Server error updating stock")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Stock updated successfully",
		"product": map[string]interface{}{
			"id":    product.ID,
			"name":  product.Name,
			"stock": product.Stock,
		},
	})
}

func GetLowStockProducts(w http.ResponseWriter, r *http.Request) {
	threshold, err := strconv.Atoi(r.URL.Query().Get("threshold"))
	if err != nil || threshold < 0 {
		threshold = 10
	}

	products, err := dbhelper.ListLowStockProducts(threshold)
	if err != nil {
		logrus.WithError(err).Error("failed to list low stock products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting low stock products")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"products":  products,
		"threshold": threshold,
	})
}

func ExportProducts(w http.ResponseWriter, r *http.Request) {
	products, err := dbhelper.ListProducts(dbhelper.ProductFilter{ActiveOnly: true, Limit: 10000})
	if err != nil {
		logrus.WithError(err).Error("failed to export products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error exporting products")
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"products": products,
		})
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=products.csv")
	writer := csv.NewWriter(w)
	writer.Write([]string{"Name", "Category", "Price", "Stock", "Description"})
	for _, p := range products {
		writer.Write([]string{
			p.Name,
			string(p.Category),
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			strconv.Itoa(p.Stock),
			strings.ReplaceAll(p.Description, "\n", " "),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		logrus.WithError(err).Error("failed to write product csv")
	}
}
