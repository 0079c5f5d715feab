// Package db persists model artifacts, metrics history and classification
// logs in SQLite.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hauntmuskie/naivebayes-nggo/metrics"
	"github.com/hauntmuskie/naivebayes-nggo/pipeline"
)

type Store struct {
	database *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS models (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name TEXT NOT NULL UNIQUE,
        target_column TEXT NOT NULL,
        feature_columns TEXT NOT NULL,
        classes TEXT NOT NULL,
        accuracy REAL NOT NULL,
        model_data TEXT NOT NULL,
        encoders_data TEXT NOT NULL,
        label_encoder_data TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS model_metrics (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_id INTEGER NOT NULL,
        accuracy REAL NOT NULL,
        precision REAL NOT NULL,
        recall REAL NOT NULL,
        f1_score REAL NOT NULL,
        classes TEXT NOT NULL,
        class_metrics TEXT NOT NULL,
        confusion_matrix TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS classifications (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_id INTEGER NOT NULL,
        row_id TEXT NOT NULL,
        data TEXT NOT NULL,
        predicted_class TEXT NOT NULL,
        actual_class TEXT,
        confidence REAL NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS classification_history (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        file_name TEXT NOT NULL,
        model_name TEXT NOT NULL,
        total_records INTEGER NOT NULL,
        accuracy REAL,
        results TEXT NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE INDEX IF NOT EXISTS classifications_model_idx ON classifications(model_id, created_at);
    CREATE INDEX IF NOT EXISTS model_metrics_model_idx ON model_metrics(model_id);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{database: database}, nil
}

func (s *Store) Close() error {
	return s.database.Close()
}

// Put upserts the artifact by model name and appends its metrics snapshot
// to the history.
func (s *Store) Put(artifact *pipeline.Artifact) error {
	features, err := json.Marshal(artifact.FeatureColumns)
	if err != nil {
		return err
	}
	classes, err := json.Marshal(artifact.Classes)
	if err != nil {
		return err
	}

	tx, err := s.database.Begin()
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
        INSERT INTO models (model_name, target_column, feature_columns, classes, accuracy,
                            model_data, encoders_data, label_encoder_data, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(model_name) DO UPDATE SET
            target_column = excluded.target_column,
            feature_columns = excluded.feature_columns,
            classes = excluded.classes,
            accuracy = excluded.accuracy,
            model_data = excluded.model_data,
            encoders_data = excluded.encoders_data,
            label_encoder_data = excluded.label_encoder_data,
            created_at = excluded.created_at`,
		artifact.Name, artifact.TargetColumn, string(features), string(classes), artifact.Accuracy,
		artifact.ModelData, artifact.EncodersData, artifact.LabelEncoderData, artifact.CreatedAt)
	if err != nil {
		tx.Rollback()
		return err
	}

	if artifact.Metrics != nil {
		var modelID int64
		if err := tx.QueryRow(`SELECT id FROM models WHERE model_name = ?`, artifact.Name).Scan(&modelID); err != nil {
			tx.Rollback()
			return err
		}
		if err := insertMetrics(tx, modelID, artifact.Metrics); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func insertMetrics(tx *sql.Tx, modelID int64, report *metrics.Report) error {
	classMetrics, err := json.Marshal(report.ClassMetrics)
	if err != nil {
		return err
	}
	confusion, err := json.Marshal(report.ConfusionMatrix)
	if err != nil {
		return err
	}
	classes, err := json.Marshal(report.Classes)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
        INSERT INTO model_metrics (model_id, accuracy, precision, recall, f1_score,
                                   classes, class_metrics, confusion_matrix)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		modelID, report.Accuracy, report.Precision, report.Recall, report.F1Score,
		string(classes), string(classMetrics), string(confusion))
	return err
}

// SaveMetrics appends an evaluation snapshot for a stored model.
func (s *Store) SaveMetrics(modelName string, report *metrics.Report) error {
	var modelID int64
	err := s.database.QueryRow(`SELECT id FROM models WHERE model_name = ?`, modelName).Scan(&modelID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("model %q not stored", modelName)
	}
	if err != nil {
		return err
	}
	tx, err := s.database.Begin()
	if err != nil {
		return err
	}
	if err := insertMetrics(tx, modelID, report); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) Get(name string) (*pipeline.Artifact, bool, error) {
	row := s.database.QueryRow(`
        SELECT id, model_name, target_column, feature_columns, classes, accuracy,
               model_data, encoders_data, label_encoder_data, created_at
        FROM models WHERE model_name = ?`, name)
	artifact, modelID, err := scanArtifact(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	report, err := s.latestMetrics(modelID)
	if err != nil {
		return nil, false, err
	}
	artifact.Metrics = report
	return artifact, true, nil
}

func (s *Store) List() ([]*pipeline.Artifact, error) {
	rows, err := s.database.Query(`
        SELECT id, model_name, target_column, feature_columns, classes, accuracy,
               model_data, encoders_data, label_encoder_data, created_at
        FROM models ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artifacts []*pipeline.Artifact
	var ids []int64
	for rows.Next() {
		artifact, modelID, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
		ids = append(ids, modelID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, artifact := range artifacts {
		report, err := s.latestMetrics(ids[i])
		if err != nil {
			return nil, err
		}
		artifact.Metrics = report
	}
	return artifacts, nil
}

// Delete removes the model and everything keyed by it. Reports false when
// the name is not stored.
func (s *Store) Delete(name string) (bool, error) {
	tx, err := s.database.Begin()
	if err != nil {
		return false, err
	}
	var modelID int64
	err = tx.QueryRow(`SELECT id FROM models WHERE model_name = ?`, name).Scan(&modelID)
	if err == sql.ErrNoRows {
		tx.Rollback()
		return false, nil
	}
	if err != nil {
		tx.Rollback()
		return false, err
	}
	for _, stmt := range []string{
		`DELETE FROM classifications WHERE model_id = ?`,
		`DELETE FROM model_metrics WHERE model_id = ?`,
		`DELETE FROM models WHERE id = ?`,
	} {
		if _, err := tx.Exec(stmt, modelID); err != nil {
			tx.Rollback()
			return false, err
		}
	}
	return true, tx.Commit()
}

// LogClassifications records the per-row results of one classification run.
func (s *Store) LogClassifications(modelName string, results []pipeline.RowResult) error {
	var modelID int64
	err := s.database.QueryRow(`SELECT id FROM models WHERE model_name = ?`, modelName).Scan(&modelID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("model %q not stored", modelName)
	}
	if err != nil {
		return err
	}

	tx, err := s.database.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`
        INSERT INTO classifications (model_id, row_id, data, predicted_class, actual_class, confidence)
        VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, result := range results {
		actual := sql.NullString{String: result.ActualClass, Valid: result.ActualClass != ""}
		if _, err := stmt.Exec(modelID, result.ID, result.Data, result.PredictedClass, actual, result.Confidence); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

type HistoryEntry struct {
	ID           int64     `json:"id"`
	FileName     string    `json:"fileName"`
	ModelName    string    `json:"modelName"`
	TotalRecords int       `json:"totalRecords"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	Results      string    `json:"results"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s *Store) SaveHistory(entry HistoryEntry) error {
	accuracy := sql.NullFloat64{}
	if entry.Accuracy != nil {
		accuracy = sql.NullFloat64{Float64: *entry.Accuracy, Valid: true}
	}
	_, err := s.database.Exec(`
        INSERT INTO classification_history (file_name, model_name, total_records, accuracy, results)
        VALUES (?, ?, ?, ?, ?)`,
		entry.FileName, entry.ModelName, entry.TotalRecords, accuracy, entry.Results)
	return err
}

func (s *Store) ListHistory(limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.database.Query(`
        SELECT id, file_name, model_name, total_records, accuracy, results, created_at
        FROM classification_history
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var accuracy sql.NullFloat64
		if err := rows.Scan(&entry.ID, &entry.FileName, &entry.ModelName, &entry.TotalRecords,
			&accuracy, &entry.Results, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if accuracy.Valid {
			value := accuracy.Float64
			entry.Accuracy = &value
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArtifact(row rowScanner) (*pipeline.Artifact, int64, error) {
	var artifact pipeline.Artifact
	var modelID int64
	var features, classes string
	err := row.Scan(&modelID, &artifact.Name, &artifact.TargetColumn, &features, &classes,
		&artifact.Accuracy, &artifact.ModelData, &artifact.EncodersData,
		&artifact.LabelEncoderData, &artifact.CreatedAt)
	if err != nil {
		return nil, 0, err
	}
	if err := json.Unmarshal([]byte(features), &artifact.FeatureColumns); err != nil {
		return nil, 0, fmt.Errorf("model %q: parse feature columns: %w", artifact.Name, err)
	}
	if err := json.Unmarshal([]byte(classes), &artifact.Classes); err != nil {
		return nil, 0, fmt.Errorf("model %q: parse classes: %w", artifact.Name, err)
	}
	return &artifact, modelID, nil
}

func (s *Store) latestMetrics(modelID int64) (*metrics.Report, error) {
	row := s.database.QueryRow(`
        SELECT accuracy, precision, recall, f1_score, classes, class_metrics, confusion_matrix
        FROM model_metrics
        WHERE model_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT 1`, modelID)

	var report metrics.Report
	var classes, classMetrics string
	var confusion sql.NullString
	err := row.Scan(&report.Accuracy, &report.Precision, &report.Recall, &report.F1Score,
		&classes, &classMetrics, &confusion)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(classes), &report.Classes); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(classMetrics), &report.ClassMetrics); err != nil {
		return nil, err
	}
	if confusion.Valid && confusion.String != "" {
		if err := json.Unmarshal([]byte(confusion.String), &report.ConfusionMatrix); err != nil {
			return nil, err
		}
	}
	return &report, nil
}
