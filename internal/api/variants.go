package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	apperrors "lead-intake/internal/common/errors"
	"lead-intake/internal/schema"
)

// VariantHandler serves the step catalogue so front-ends never hardcode validity.
type VariantHandler struct {
	registry *schema.Registry
}

func NewVariantHandler(registry *schema.Registry) *VariantHandler {
	return &VariantHandler{registry: registry}
}

type variantSummary struct {
	Key      string `json:"key"`
	Category string `json:"category"`
	Label    string `json:"label"`
	Steps    int    `json:"steps"`
}

func (h *VariantHandler) List(c *gin.Context) {
	summaries := lo.Map(h.registry.Variants(), func(v *schema.Variant, _ int) variantSummary {
		return variantSummary{Key: v.Key, Category: string(v.Category), Label: v.Label, Steps: len(v.Steps)}
	})
	c.JSON(http.StatusOK, gin.H{"success": true, "variants": summaries})
}

func (h *VariantHandler) Get(c *gin.Context) {
	key := c.Param("key")
	v, err := h.registry.Variant(key)
	if err != nil {
		if errors.Is(err, schema.ErrUnknownVariant) {
			c.Error(apperrors.NewUnknownVariantError(key, err))
			return
		}
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "variant": v})
}
