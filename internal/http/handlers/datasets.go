package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/curately/groundtruth-backend/internal/dataset"
	"github.com/curately/groundtruth-backend/internal/http/response"
	"github.com/curately/groundtruth-backend/internal/platform/logger"
)

// DatasetHandler serves the named-dataset operations: list, open, save-as,
// rename, delete. Only wired up when the storage backend supports names.
type DatasetHandler[T any, PT dataset.RecordPtr[T]] struct {
	log     *logger.Logger
	session *dataset.Session[T, PT]
	confirm *dataset.ConfirmTracker
}

func NewDatasetHandler[T any, PT dataset.RecordPtr[T]](
	log *logger.Logger,
	session *dataset.Session[T, PT],
	confirm *dataset.ConfirmTracker,
) *DatasetHandler[T, PT] {
	return &DatasetHandler[T, PT]{
		log:     log.With("handler", "DatasetHandler"),
		session: session,
		confirm: confirm,
	}
}

// GET /datasets
func (h *DatasetHandler[T, PT]) ListDatasets(c *gin.Context) {
	infos, err := h.session.ListDatasets(c.Request.Context())
	if err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{
		"datasets": infos,
		"active":   h.session.Name(),
	})
}

// POST /datasets/:name/open
func (h *DatasetHandler[T, PT]) OpenDataset(c *gin.Context) {
	name := c.Param("name")
	if err := h.session.Open(c.Request.Context(), name); err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"active": name})
}

// POST /datasets
// Names the in-memory collection and persists it under that name. An empty
// or missing name gets a unique date-stamped default.
func (h *DatasetHandler[T, PT]) SaveDatasetAs(c *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	name, err := h.session.SaveAs(c.Request.Context(), strings.TrimSpace(body.Name))
	if err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"name": name})
}

// PATCH /datasets/:name
func (h *DatasetHandler[T, PT]) RenameDataset(c *gin.Context) {
	oldName := c.Param("name")
	if oldName != h.session.Name() {
		response.RespondError(c, http.StatusBadRequest, "not_active", errors.New("only the open dataset can be renamed"))
		return
	}
	newName, ok := bindName(c)
	if !ok {
		return
	}
	if err := h.session.Rename(c.Request.Context(), newName); err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"name": newName})
}

// DELETE /datasets/:name
// Two-step, like record deletes.
func (h *DatasetHandler[T, PT]) DeleteDataset(c *gin.Context) {
	name := c.Param("name")
	if !h.confirm.Confirm("dataset:" + name) {
		response.RespondOK(c, gin.H{"confirm_required": true})
		return
	}
	if err := h.session.DeleteDataset(c.Request.Context(), name); err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

func bindName(c *gin.Context) (string, bool) {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return "", false
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("name must not be empty"))
		return "", false
	}
	return name, true
}
