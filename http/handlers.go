package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-nggo/dataset"
	"github.com/hauntmuskie/naivebayes-nggo/db"
	"github.com/hauntmuskie/naivebayes-nggo/pipeline"
)

const serviceVersion = "1.0.0"

const maxUploadBytes = 32 << 20

// HistoryStore is the slice of the database the handlers log to beyond
// the model registry itself.
type HistoryStore interface {
	LogClassifications(modelName string, results []pipeline.RowResult) error
	SaveHistory(entry db.HistoryEntry) error
	ListHistory(limit int) ([]db.HistoryEntry, error)
}

type Handlers struct {
	registry  *pipeline.Registry
	training  *pipeline.TrainingPipeline
	inference *pipeline.InferencePipeline
	history   HistoryStore
	hub       *Hub
	logger    *zap.Logger
}

func NewHandlers(registry *pipeline.Registry, training *pipeline.TrainingPipeline,
	inference *pipeline.InferencePipeline, history HistoryStore, hub *Hub, logger *zap.Logger) *Handlers {
	return &Handlers{
		registry:  registry,
		training:  training,
		inference: inference,
		history:   history,
		hub:       hub,
		logger:    logger,
	}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("POST /api/initialize", h.handleInitialize)
	mux.HandleFunc("POST /api/train", h.handleTrain)
	mux.HandleFunc("POST /api/classify", h.handleClassify)
	mux.HandleFunc("GET /api/models", h.handleModels)
	mux.HandleFunc("DELETE /api/models/{name}", h.handleDeleteModel)
	mux.HandleFunc("GET /api/history", h.handleHistory)
	mux.HandleFunc("GET /api/ws/events", h.hub.HandleWebSocket)
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "online",
		"version": serviceVersion,
	})
}

func (h *Handlers) handleInitialize(w http.ResponseWriter, r *http.Request) {
	count, err := h.registry.Reload()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "initialized",
		"count":      count,
		"modelNames": h.registry.Names(),
	})
}

func (h *Handlers) handleTrain(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form: " + err.Error()})
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "csv file is required"})
		return
	}
	defer file.Close()

	modelName := r.FormValue("model_name")
	targetColumn := r.FormValue("target_column")
	if modelName == "" || targetColumn == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "model_name and target_column are required"})
		return
	}

	var featureColumns []string
	if raw := r.FormValue("feature_columns"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &featureColumns); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "feature_columns must be a JSON array of strings"})
			return
		}
	}

	data, err := dataset.ReadCSV(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	artifact, err := h.training.Train(pipeline.TrainRequest{
		ModelName:      modelName,
		TargetColumn:   targetColumn,
		IDColumn:       r.FormValue("id_column"),
		FeatureColumns: featureColumns,
		Data:           data,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.hub.Publish(EventModelTrained, artifact.Summary())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "trained",
		"model":   artifact.Summary(),
		"metrics": artifact.Metrics,
	})
}

func (h *Handlers) handleClassify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form: " + err.Error()})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "csv file is required"})
		return
	}
	defer file.Close()

	modelName := r.FormValue("model_name")
	if modelName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "model_name is required"})
		return
	}

	data, err := dataset.ReadCSV(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	result, err := h.inference.Classify(pipeline.ClassifyRequest{
		ModelName:    modelName,
		IDColumn:     r.FormValue("id_column"),
		ActualColumn: r.FormValue("actual_column"),
		Data:         data,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.history.LogClassifications(modelName, result.Results); err != nil {
		h.logger.Warn("failed to log classifications", zap.String("model", modelName), zap.Error(err))
	}
	if resultsJSON, err := json.Marshal(result.Results); err == nil {
		entry := db.HistoryEntry{
			FileName:     header.Filename,
			ModelName:    modelName,
			TotalRecords: len(result.Results),
			Results:      string(resultsJSON),
		}
		if result.Metrics != nil {
			accuracy := result.Metrics.Accuracy
			entry.Accuracy = &accuracy
		}
		if err := h.history.SaveHistory(entry); err != nil {
			h.logger.Warn("failed to save classification history", zap.String("model", modelName), zap.Error(err))
		}
	}

	h.hub.Publish(EventClassificationCompleted, map[string]interface{}{
		"modelName":    modelName,
		"fileName":     header.Filename,
		"totalRecords": len(result.Results),
	})

	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleModels(w http.ResponseWriter, r *http.Request) {
	count, err := h.registry.Reload()
	if err != nil {
		h.writeError(w, err)
		return
	}
	names := h.registry.Names()
	summaries := make([]pipeline.Summary, 0, count)
	for _, name := range names {
		artifact, err := h.registry.Get(name)
		if err != nil {
			continue
		}
		summaries = append(summaries, artifact.Summary())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"models":     summaries,
		"count":      len(summaries),
		"modelNames": names,
	})
}

func (h *Handlers) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	deleted, err := h.registry.Delete(name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "model " + strconv.Quote(name) + " not found"})
		return
	}

	h.hub.Publish(EventModelDeleted, map[string]string{"modelName": name})

	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "deleted",
		"modelName": name,
	})
}

func (h *Handlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	entries, err := h.history.ListHistory(limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []db.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": entries,
		"count":   len(entries),
	})
}

// writeError maps pipeline errors onto HTTP statuses with a structured
// body so clients can act on the detail, not just the message.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var schemaErr *pipeline.SchemaError
	if errors.As(err, &schemaErr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  schemaErr.Error(),
			"detail": schemaErr,
		})
		return
	}
	var dataErr *pipeline.InsufficientDataError
	if errors.As(err, &dataErr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": dataErr.Error()})
		return
	}
	var encodingErr *pipeline.EncodingError
	if errors.As(err, &encodingErr) {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  encodingErr.Error(),
			"detail": encodingErr,
		})
		return
	}
	var notFoundErr *pipeline.ModelNotFoundError
	if errors.As(err, &notFoundErr) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":           notFoundErr.Error(),
			"availableModels": notFoundErr.Available,
		})
		return
	}

	h.logger.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
