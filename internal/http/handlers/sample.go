package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/curately/groundtruth-backend/internal/domain"
	"github.com/curately/groundtruth-backend/internal/http/response"
)

type SampleHandler struct{}

func NewSampleHandler() *SampleHandler { return &SampleHandler{} }

// GET /api/sample-dataset
func (h *SampleHandler) GetSample(c *gin.Context) {
	entries := domain.SampleEntries()
	response.RespondOK(c, gin.H{
		"records": entries,
		"total":   len(entries),
	})
}
