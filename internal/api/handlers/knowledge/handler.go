package knowledge

import (
	"net/http"

	"allergen-scanner/internal/core/knowledge"
	"allergen-scanner/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// AllergensResponse 過敏原列表
type AllergensResponse struct {
	Allergens []knowledge.AllergenRecord `json:"allergens"`
	Stats     knowledge.Stats            `json:"stats"`
}

// Handler 知識庫查詢處理程序
type Handler struct {
	kb *knowledge.KnowledgeBase
}

// NewHandler 創建知識庫處理程序
func NewHandler(kb *knowledge.KnowledgeBase) *Handler {
	return &Handler{kb: kb}
}

// HandleAllergens 列出所有過敏原類別
func (h *Handler) HandleAllergens(c *gin.Context) {
	c.JSON(http.StatusOK, AllergensResponse{
		Allergens: h.kb.Allergens(),
		Stats:     h.kb.Stats(),
	})
}

// HandleMedication 查詢單一藥物的食物交互作用
func (h *Handler) HandleMedication(c *gin.Context) {
	rec, ok := h.kb.MedicationInfo(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, common.ErrorResponse{
			Code:    common.ErrCodeNotFound,
			Message: common.ErrNotFound.Message,
		})
		return
	}
	c.JSON(http.StatusOK, rec)
}
