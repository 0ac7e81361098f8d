package main

import (
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"warta/config/database"
	"warta/internal/searchindex"
	"warta/pkg/logger"
	"warta/router"
)

func main() {
	// Load .env file
	err := godotenv.Load()
	logger.Init()
	if err != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	db := database.Connect()
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		logger.Sugar.Fatalf("Migration failed: %v", err)
	}

	indexPath := os.Getenv("INDEX_PATH")
	if indexPath == "" {
		indexPath = "warta.bleve"
	}
	index, err := searchindex.Open(indexPath)
	if err != nil {
		logger.Sugar.Fatalf("Failed to open search index: %v", err)
	}
	defer index.Close()

	handler := router.Setup(db, index)

	logger.Sugar.Info("warta backend listening on :8080")
	if err := http.ListenAndServe(":8080", handler); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}
