package http

import (
	"github.com/gin-gonic/gin"

	"github.com/curately/groundtruth-backend/internal/dataset"
	"github.com/curately/groundtruth-backend/internal/domain"
	httpH "github.com/curately/groundtruth-backend/internal/http/handlers"
	httpMW "github.com/curately/groundtruth-backend/internal/http/middleware"
)

type EntryHandler = httpH.RecordHandler[domain.Entry, *domain.Entry]
type DocumentHandler = httpH.RecordHandler[domain.Document, *domain.Document]
type EntryDatasetHandler = httpH.DatasetHandler[domain.Entry, *domain.Entry]
type DocumentDatasetHandler = httpH.DatasetHandler[domain.Document, *domain.Document]

type RouterConfig struct {
	GateHandler    *httpH.GateHandler
	AuthMiddleware *httpMW.AuthMiddleware
	CORSOrigins    []string

	EntryHandler           *EntryHandler
	EntryDatasetHandler    *EntryDatasetHandler
	DocumentHandler        *DocumentHandler
	DocumentDatasetHandler *DocumentDatasetHandler
	SampleHandler          *httpH.SampleHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Gate (public)
		if cfg.GateHandler != nil {
			api.POST("/verify", cfg.GateHandler.Verify)
		}

		// Sample data (public starter download)
		if cfg.SampleHandler != nil {
			api.GET("/sample-dataset", cfg.SampleHandler.GetSample)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Q&A entries
		if cfg.EntryHandler != nil {
			registerCollection(protected.Group("/entries"), cfg.EntryHandler)
		}
		if cfg.EntryDatasetHandler != nil {
			registerDatasets(protected.Group("/entries"), cfg.EntryDatasetHandler)
		}

		// Legal-text documents
		if cfg.DocumentHandler != nil {
			registerCollection(protected.Group("/documents"), cfg.DocumentHandler)
		}
		if cfg.DocumentDatasetHandler != nil {
			registerDatasets(protected.Group("/documents"), cfg.DocumentDatasetHandler)
		}
	}

	return r
}

func registerCollection[T any, PT dataset.RecordPtr[T]](g *gin.RouterGroup, h *httpH.RecordHandler[T, PT]) {
	g.GET("/dataset", h.GetDataset)
	g.DELETE("/dataset", h.ClearDataset)
	g.POST("/dataset/import", h.ImportDataset)
	g.GET("/dataset/export", h.ExportDataset)

	g.GET("/records", h.ListRecords)
	g.POST("/records", h.CreateRecord)
	g.PUT("/records/:id", h.UpdateRecord)
	g.DELETE("/records/:id", h.DeleteRecord)
	g.POST("/records/:id/approve", h.ApproveRecord)

	g.GET("/username", h.GetUsername)
	g.PUT("/username", h.SetUsername)
}

func registerDatasets[T any, PT dataset.RecordPtr[T]](g *gin.RouterGroup, h *httpH.DatasetHandler[T, PT]) {
	g.GET("/datasets", h.ListDatasets)
	g.POST("/datasets", h.SaveDatasetAs)
	g.POST("/datasets/:name/open", h.OpenDataset)
	g.PATCH("/datasets/:name", h.RenameDataset)
	g.DELETE("/datasets/:name", h.DeleteDataset)
}
