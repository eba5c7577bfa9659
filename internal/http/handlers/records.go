package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/curately/groundtruth-backend/internal/codec"
	"github.com/curately/groundtruth-backend/internal/dataset"
	"github.com/curately/groundtruth-backend/internal/domain"
	"github.com/curately/groundtruth-backend/internal/http/response"
	"github.com/curately/groundtruth-backend/internal/platform/logger"
)

// RecordHandler serves one record collection: the dataset lifecycle, the
// review operations, and the exports. It is instantiated once per record
// kind; csv is nil for kinds without a CSV rendering.
type RecordHandler[T any, PT dataset.RecordPtr[T]] struct {
	log     *logger.Logger
	session *dataset.Session[T, PT]
	confirm *dataset.ConfirmTracker
	kind    domain.Kind
	csv     func([]PT) string
	now     func() time.Time
}

func NewRecordHandler[T any, PT dataset.RecordPtr[T]](
	log *logger.Logger,
	session *dataset.Session[T, PT],
	confirm *dataset.ConfirmTracker,
	kind domain.Kind,
	csv func([]PT) string,
) *RecordHandler[T, PT] {
	return &RecordHandler[T, PT]{
		log:     log.With("handler", "RecordHandler", "kind", string(kind)),
		session: session,
		confirm: confirm,
		kind:    kind,
		csv:     csv,
		now:     time.Now,
	}
}

// GET /dataset
func (h *RecordHandler[T, PT]) GetDataset(c *gin.Context) {
	name, username, createdAt, updatedAt, persisted := h.session.Meta()
	total, approved, pending := h.session.Stats()
	payload := gin.H{
		"name":      name,
		"username":  username,
		"persisted": persisted,
		"records":   h.session.Records(),
		"stats": gin.H{
			"total":    total,
			"approved": approved,
			"pending":  pending,
		},
	}
	if persisted {
		payload["created_at"] = createdAt
		payload["updated_at"] = updatedAt
	}
	response.RespondOK(c, payload)
}

// DELETE /dataset
func (h *RecordHandler[T, PT]) ClearDataset(c *gin.Context) {
	if err := h.session.Clear(c.Request.Context()); err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"cleared": true})
}

// POST /dataset/import
func (h *RecordHandler[T, PT]) ImportDataset(c *gin.Context) {
	if err := h.session.ImportGuard(); err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	data, filename, err := readUpload(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload", err)
		return
	}
	format, err := uploadFormat(c, filename)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_format", err)
		return
	}

	var records []PT
	switch format {
	case codec.FormatJSON:
		records, err = codec.DecodeJSON[T, PT](data)
	case codec.FormatJSONL:
		records, err = codec.DecodeJSONL[T, PT](data)
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_format", fmt.Errorf("format %q is not importable", format))
		return
	}
	if err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}

	if err := h.session.ImportRecords(c.Request.Context(), records); err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	h.log.Info("Imported records", "count", len(records), "format", string(format))
	response.RespondOK(c, gin.H{"imported": len(records)})
}

// GET /dataset/export?format=json|jsonl|csv
func (h *RecordHandler[T, PT]) ExportDataset(c *gin.Context) {
	format, err := codec.ParseFormat(c.DefaultQuery("format", string(codec.FormatJSON)))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_format", err)
		return
	}
	records := h.session.Records()

	var payload []byte
	var contentType string
	switch format {
	case codec.FormatJSON:
		payload, err = codec.EncodeJSON(records)
		contentType = "application/json"
	case codec.FormatJSONL:
		payload, err = codec.EncodeJSONL(records)
		contentType = "application/x-ndjson"
	case codec.FormatCSV:
		if h.csv == nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_format", fmt.Errorf("csv export is not available for this collection"))
			return
		}
		payload = []byte(h.csv(records))
		contentType = "text/csv"
	}
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "export_failed", err)
		return
	}

	filename := codec.ExportFilename(h.kind, h.session.Name(), format, h.now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

// GET /records?search=&filter=&sort=
func (h *RecordHandler[T, PT]) ListRecords(c *gin.Context) {
	filter := dataset.ApprovalFilter(c.DefaultQuery("filter", string(dataset.FilterAll)))
	switch filter {
	case dataset.FilterAll, dataset.FilterApproved, dataset.FilterPending:
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_filter", fmt.Errorf("unknown filter %q", filter))
		return
	}
	sortDir := dataset.SortDirection(c.DefaultQuery("sort", string(dataset.SortNone)))
	switch sortDir {
	case dataset.SortNone, dataset.SortAsc, dataset.SortDesc:
	default:
		response.RespondError(c, http.StatusBadRequest, "invalid_sort", fmt.Errorf("unknown sort direction %q", sortDir))
		return
	}

	records := h.session.View(c.Query("search"), filter, sortDir)
	response.RespondOK(c, gin.H{
		"records": records,
		"total":   h.session.Count(),
		"shown":   len(records),
	})
}

// POST /records
// Optional ?index=N&position=before|after inserts relative to a list index.
func (h *RecordHandler[T, PT]) CreateRecord(c *gin.Context) {
	var rec T
	if err := c.ShouldBindJSON(&rec); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	candidate := PT(&rec)

	if rawIndex := c.Query("index"); rawIndex != "" {
		index, err := strconv.Atoi(rawIndex)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_index", err)
			return
		}
		before := c.DefaultQuery("position", "before") != "after"
		if err := h.session.InsertAt(c.Request.Context(), candidate, index, before); err != nil {
			status, code := mapError(err)
			response.RespondError(c, status, code, err)
			return
		}
	} else {
		if err := h.session.Add(c.Request.Context(), candidate); err != nil {
			status, code := mapError(err)
			response.RespondError(c, status, code, err)
			return
		}
	}
	response.RespondOK(c, gin.H{"record": candidate})
}

// PUT /records/:id
func (h *RecordHandler[T, PT]) UpdateRecord(c *gin.Context) {
	id := c.Param("id")
	var rec T
	if err := c.ShouldBindJSON(&rec); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if err := h.session.Edit(c.Request.Context(), id, PT(&rec)); err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"updated": true})
}

// DELETE /records/:id
// The first request arms the delete; a second within the window commits it.
func (h *RecordHandler[T, PT]) DeleteRecord(c *gin.Context) {
	id := c.Param("id")
	if !h.confirm.Confirm(id) {
		response.RespondOK(c, gin.H{"confirm_required": true})
		return
	}
	if err := h.session.Remove(c.Request.Context(), id); err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// POST /records/:id/approve
func (h *RecordHandler[T, PT]) ApproveRecord(c *gin.Context) {
	approver := h.session.Username()
	if approver == "" {
		response.RespondError(c, http.StatusBadRequest, "username_required", errors.New("set a username before approving records"))
		return
	}
	if err := h.session.Approve(c.Request.Context(), c.Param("id"), approver); err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"approved": true})
}

// GET /username
func (h *RecordHandler[T, PT]) GetUsername(c *gin.Context) {
	response.RespondOK(c, gin.H{"username": h.session.Username()})
}

// PUT /username
func (h *RecordHandler[T, PT]) SetUsername(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", errors.New("username must not be empty"))
		return
	}
	if err := h.session.SetUsername(c.Request.Context(), username); err != nil {
		status, code := mapError(err)
		response.RespondError(c, status, code, err)
		return
	}
	response.RespondOK(c, gin.H{"username": username})
}

// readUpload accepts either a multipart "file" field or the raw body.
func readUpload(c *gin.Context) ([]byte, string, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, "", err
		}
		return data, file.Filename, nil
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty upload")
	}
	return data, "", nil
}

// uploadFormat resolves the import format: explicit query param first, then
// the uploaded filename's extension, else JSON.
func uploadFormat(c *gin.Context, filename string) (codec.Format, error) {
	if raw := c.Query("format"); raw != "" {
		return codec.ParseFormat(raw)
	}
	if ext := strings.TrimPrefix(filepath.Ext(filename), "."); ext != "" {
		return codec.ParseFormat(strings.ToLower(ext))
	}
	return codec.FormatJSON, nil
}
