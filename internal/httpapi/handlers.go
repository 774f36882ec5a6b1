package httpapi

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"curator/internal/catalog"
	"curator/internal/preflight"
	"curator/internal/publishing"
	"curator/internal/services"
	"curator/internal/workflow"
)

type statusResponse struct {
	workflow.StatusSummary
	Preflight []preflight.Result `json:"preflight"`
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		StatusSummary: s.mgr.Status(r.Context()),
		Preflight:     preflight.RunAll(r.Context(), s.mgr.Config()),
	})
}

type createProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.mgr.ListProjects(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	project, err := s.mgr.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, project)
}

func (s *server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.mgr.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, project)
}

func (s *server) handleArchiveProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.mgr.ArchiveProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, project)
}

type createProductRequest struct {
	SKU        string             `json:"sku"`
	Attributes catalog.Attributes `json:"attributes"`
}

func (s *server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.mgr.ListProducts(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (s *server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	product, err := s.mgr.Importer().AddProduct(r.Context(), chi.URLParam(r, "projectID"), req.SKU, req.Attributes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, product)
}

// handleImportProducts accepts a multipart upload in the "file" field.
func (s *server) handleImportProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	result, err := s.mgr.Importer().Import(r.Context(), chi.URLParam(r, "projectID"), header.Filename, file)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

type runPipelineRequest struct {
	ProductIDs []string `json:"productIds"`
}

func (s *server) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	var req runPipelineRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if len(req.ProductIDs) == 0 {
		s.writeError(w, http.StatusBadRequest, "productIds must not be empty")
		return
	}
	s.writeJSON(w, http.StatusOK, s.mgr.RunBatch(r.Context(), req.ProductIDs))
}

func (s *server) handleRunProject(w http.ResponseWriter, r *http.Request) {
	result, err := s.mgr.RunProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

func (s *server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	var filter *catalog.ReviewStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, ok := catalog.ParseReviewStatus(raw)
		if !ok {
			s.writeError(w, http.StatusBadRequest, "unknown review status "+raw)
			return
		}
		filter = &status
	}
	items, err := s.mgr.Review().ListItems(r.Context(), chi.URLParam(r, "projectID"), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.mgr.Review().GetStats(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

type setStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (s *server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	item, err := s.mgr.Review().SetStatusString(r.Context(), chi.URLParam(r, "itemID"), req.Status, req.Notes)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

type bulkApproveRequest struct {
	ItemIDs []string `json:"itemIds"`
}

func (s *server) handleBulkApprove(w http.ResponseWriter, r *http.Request) {
	var req bulkApproveRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	updated, err := s.mgr.Review().BulkApprove(r.Context(), req.ItemIDs)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

type createTargetRequest struct {
	Name   string            `json:"name"`
	Kind   string            `json:"kind"`
	Config map[string]string `json:"config"`
}

func (s *server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	targets, err := s.mgr.Publishing().ListTargets(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"targets": targets})
}

func (s *server) handleCreateTarget(w http.ResponseWriter, r *http.Request) {
	var req createTargetRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	target, err := s.mgr.Publishing().CreateTarget(r.Context(), publishing.NewTarget{
		ProjectID: chi.URLParam(r, "projectID"),
		Name:      req.Name,
		Kind:      req.Kind,
		Config:    req.Config,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, target)
}

type publishRequest struct {
	ProductIDs []string `json:"productIds"`
}

func (s *server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	history, err := s.mgr.Publishing().Publish(r.Context(), chi.URLParam(r, "targetID"), req.ProductIDs)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *server) handlePublishApproved(w http.ResponseWriter, r *http.Request) {
	history, err := s.mgr.Publishing().PublishApproved(r.Context(), chi.URLParam(r, "targetID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, history)
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.mgr.Publishing().ListHistory(r.Context(), chi.URLParam(r, "targetID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if _, err := s.mgr.GetProject(r.Context(), projectID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	body, err := s.mgr.Publishing().ExportCSV(r.Context(), projectID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+projectID+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if _, err := s.mgr.GetProject(r.Context(), projectID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.mgr.Publishing().ExportXLSX(r.Context(), projectID, &buf); err != nil {
		s.writeServiceError(w, r, services.Wrap(services.ErrTransient, "http-api", "export xlsx", "render workbook", err))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+projectID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
