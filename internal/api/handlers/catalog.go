package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EntertainPet/webshop/internal/domain"
	"github.com/EntertainPet/webshop/internal/repository"
)

// ProductResponse is a catalog entry with its purchasable variants
type ProductResponse struct {
	ID              int64             `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	PriceCents      int64             `json:"price_cents"`
	SalePriceCents  *int64            `json:"sale_price_cents,omitempty"`
	FinalPriceCents int64             `json:"final_price_cents"`
	CategoryID      int64             `json:"category_id"`
	BrandID         int64             `json:"brand_id"`
	Available       bool              `json:"available"`
	Variants        []VariantResponse `json:"variants,omitempty"`
}

type VariantResponse struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Stock int    `json:"stock"`
}

func productResponse(product *domain.Product) ProductResponse {
	return ProductResponse{
		ID:              product.ID,
		Name:            product.Name,
		Description:     product.Description,
		PriceCents:      product.PriceCents,
		SalePriceCents:  product.SalePriceCents,
		FinalPriceCents: product.FinalPriceCents(),
		CategoryID:      product.CategoryID,
		BrandID:         product.BrandID,
		Available:       product.Available,
	}
}

func HandleListProducts(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repository.ProductFilter{
			Query:         c.Query("q"),
			CategoryID:    queryInt64(c, "category_id"),
			BrandID:       queryInt64(c, "brand_id"),
			MinPriceCents: queryInt64(c, "min_price_cents"),
			MaxPriceCents: queryInt64(c, "max_price_cents"),
		}

		products, err := repos.Product.List(c.Request.Context(), filter)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		out := make([]ProductResponse, 0, len(products))
		for _, product := range products {
			out = append(out, productResponse(product))
		}
		c.JSON(http.StatusOK, gin.H{"products": out, "count": len(out)})
	}
}

func HandleGetProduct(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
			return
		}

		product, err := repos.Product.GetByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		variants, err := repos.Variant.ListByProductID(c.Request.Context(), id)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		resp := productResponse(product)
		for _, variant := range variants {
			resp.Variants = append(resp.Variants, VariantResponse{
				ID:    variant.ID,
				Label: variant.Label,
				Stock: variant.Stock,
			})
		}
		c.JSON(http.StatusOK, resp)
	}
}

func queryInt64(c *gin.Context, name string) int64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
