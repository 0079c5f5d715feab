// Command train_model trains a classifier from a CSV file on disk and
// stores the artifact in the service database, bypassing the HTTP API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/hauntmuskie/naivebayes-nggo/config"
	"github.com/hauntmuskie/naivebayes-nggo/dataset"
	"github.com/hauntmuskie/naivebayes-nggo/db"
	"github.com/hauntmuskie/naivebayes-nggo/pipeline"
)

func main() {
	csvPath := flag.String("csv", "", "training CSV file")
	modelName := flag.String("model", "", "model name")
	targetColumn := flag.String("target", "", "target column")
	idColumn := flag.String("id", "", "ID column (auto-detected when empty)")
	featureList := flag.String("features", "", "comma separated feature columns (all non-ID columns when empty)")
	configPath := flag.String("config", "config.yaml", "config file")
	flag.Parse()

	if *csvPath == "" || *modelName == "" || *targetColumn == "" {
		log.Fatal("-csv, -model and -target are required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		log.Fatalf("failed to open CSV: %v", err)
	}
	defer file.Close()

	data, err := dataset.ReadCSV(file)
	if err != nil {
		log.Fatalf("failed to parse CSV: %v", err)
	}

	store, err := db.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	logger := zap.NewNop()
	registry, err := pipeline.NewRegistry(store, cfg.Model.CacheSize, logger)
	if err != nil {
		log.Fatalf("failed to create registry: %v", err)
	}

	var featureColumns []string
	if *featureList != "" {
		for _, column := range strings.Split(*featureList, ",") {
			if trimmed := strings.TrimSpace(column); trimmed != "" {
				featureColumns = append(featureColumns, trimmed)
			}
		}
	}

	training := pipeline.NewTrainingPipeline(registry, logger)
	artifact, err := training.Train(pipeline.TrainRequest{
		ModelName:      *modelName,
		TargetColumn:   *targetColumn,
		IDColumn:       *idColumn,
		FeatureColumns: featureColumns,
		Data:           data,
	})
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	fmt.Printf("model %q trained on %d rows\n", artifact.Name, data.Len())
	fmt.Printf("classes: %s\n", strings.Join(artifact.Classes, ", "))
	fmt.Printf("features: %s\n", strings.Join(artifact.FeatureColumns, ", "))
	fmt.Printf("accuracy: %.4f\n", artifact.Accuracy)
}
