package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/havrebakery/bakery-api/database/dbhelper"
	"github.com/havrebakery/bakery-api/models"
	"github.com/havrebakery/bakery-api/utils"
)

// websiteProduct is the public view of a catalog entry: no stock or
// bookkeeping fields.
type websiteProduct struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Price       float64                `json:"price"`
	Category    models.Category        `json:"category"`
	Images      []models.ProductImage  `json:"images"`
	Rating      map[string]interface{} `json:"rating"`
}

func toWebsiteProducts(products []models.Product) []websiteProduct {
	out := make([]websiteProduct, 0, len(products))
	for _, p := range products {
		out = append(out, websiteProduct{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Category:    p.Category,
			Images:      p.Images,
			Rating: map[string]interface{}{
				"average": p.RatingAverage,
				"count":   p.RatingCount,
			},
		})
	}
	return out
}

func GetPublicProducts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset := parsePagination(r, 12)
	filter := dbhelper.ProductFilter{
		ActiveOnly:    true,
		FeaturedFirst: true,
		Category:      models.Category(r.URL.Query().Get("category")),
		Search:        r.URL.Query().Get("search"),
		Limit:         limit,
		Offset:        offset,
	}

	products, err := dbhelper.ListProducts(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to list public products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting products")
		return
	}
	total, err := dbhelper.CountProducts(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to count public products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting products")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"products":   toWebsiteProducts(products),
		"pagination": paginationPayload(page, limit, total),
	})
}

func GetFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	_, limit, _ := parsePagination(r, 6)
	products, err := dbhelper.ListFeaturedProducts(limit)
	if err != nil {
		logrus.WithError(err).Error("failed to list featured products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting featured products")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"products": toWebsiteProducts(products),
	})
}

func GetProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := models.Category(mux.Vars(r)["category"])
	page, limit, offset := parsePagination(r, 12)

	filter := dbhelper.ProductFilter{
		ActiveOnly: true,
		Category:   category,
		Limit:      limit,
		Offset:     offset,
	}
	products, err := dbhelper.ListProducts(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to list products by category")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting products by category")
		return
	}
	total, err := dbhelper.CountProducts(filter)
	if err != nil {
		logrus.WithError(err).Error("failed to count products by category")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting products by category")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"products":   toWebsiteProducts(products),
		"category":   category,
		"pagination": paginationPayload(page, limit, total),
	})
}

func SubmitContactForm(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Phone   string `json:"phone"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Message == "" {
		utils.RespondError(w, http.StatusBadRequest, "Name, email, and message are required")
		return
	}

	if err := dbhelper.InsertContactMessage(req.Name, req.Email, req.Phone, req.Subject, req.Message); err != nil {
		logrus.WithError(err).Error("failed to save contact message")
		utils.RespondError(w, http.StatusInternalServerError, "Server error submitting contact form")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Thank you for your message! We will get back to you soon.",
	})
}

func SubscribeNewsletter(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Email string `json:"email"`
	}
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" {
		utils.RespondError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	if err := dbhelper.SubscribeNewsletter(req.Email); err != nil {
		logrus.WithError(err).Error("failed to save newsletter subscription")
		utils.RespondError(w, http.StatusInternalServerError, "Server error subscribing to newsletter")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Thank you for subscribing to our newsletter!",
	})
}

func GetWebsiteStats(w http.ResponseWriter, r *http.Request) {
	totalProducts, err := dbhelper.CountActiveProducts()
	if err != nil {
		logrus.WithError(err).Error("failed to count products")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting website statistics")
		return
	}
	totalOrders, err := dbhelper.CountAllOrders()
	if err != nil {
		logrus.WithError(err).Error("failed to count orders")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting website statistics")
		return
	}
	categories, err := dbhelper.DistinctCategories(true)
	if err != nil {
		logrus.WithError(err).Error("failed to list categories")
		utils.RespondError(w, http.StatusInternalServerError, "Server error getting website statistics")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats": map[string]interface{}{
			"totalProducts":     totalProducts,
			"totalCategories":   len(categories),
			"categories":        categories,
			"totalOrdersServed": totalOrders,
			"establishedYear":   2020,
		},
	})
}
