package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quiz_web/internal/service"
)

// SummaryHandler 提供完賽摘要的讀取端點
type SummaryHandler struct {
	summaryService *service.SummaryService
}

// NewSummaryHandler 創建一個新的 SummaryHandler 實例
func NewSummaryHandler(summaryService *service.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService}
}

// GetSummary 以房間 ID 查詢一場遊戲的摘要
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	roomID := c.Param("roomId")

	summary, err := h.summaryService.FindByRoomID(roomID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "找不到遊戲紀錄"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListSummaries 列出最近的遊戲摘要
func (h *SummaryHandler) ListSummaries(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	summaries, err := h.summaryService.ListRecent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法查詢遊戲紀錄"})
		return
	}

	c.JSON(http.StatusOK, summaries)
}
