package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"quiz_web/internal/service"
)

// StudySetHandler 處理題目集相關的請求
type StudySetHandler struct {
	setService *service.StudySetService
}

// NewStudySetHandler 創建一個新的 StudySetHandler 實例
func NewStudySetHandler(setService *service.StudySetService) *StudySetHandler {
	return &StudySetHandler{setService: setService}
}

// CreateSet 處理建立題目集的請求
func (h *StudySetHandler) CreateSet(c *gin.Context) {
	var input struct {
		Title     string                  `json:"title" binding:"required"`
		Questions []service.QuestionInput `json:"questions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := c.Get("userID")
	set, err := h.setService.CreateSet(userID.(uint), input.Title, input.Questions)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, set)
}

// ListSets 列出用戶自己的題目集
func (h *StudySetHandler) ListSets(c *gin.Context) {
	userID, _ := c.Get("userID")

	sets, err := h.setService.ListSets(userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "無法查詢題目集"})
		return
	}

	c.JSON(http.StatusOK, sets)
}

// GetSet 取得單一題目集（僅限擁有者）
func (h *StudySetHandler) GetSet(c *gin.Context) {
	setID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的題目集 ID"})
		return
	}

	userID, _ := c.Get("userID")
	set, err := h.setService.GetSet(uint(setID), userID.(uint))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "題目集不存在"})
		return
	}

	c.JSON(http.StatusOK, set)
}
