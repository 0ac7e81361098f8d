package router

import (
	"database/sql"
	"net/http"

	entryHandler "warta/internal/entry"
	"warta/internal/entry/repository"
	"warta/internal/entry/service"
	"warta/internal/searchindex"
	"warta/middleware"
)

func Setup(db *sql.DB, index *searchindex.Index) http.Handler {
	mux := http.NewServeMux()

	repo := repository.NewEntryRepository(db)
	entryService := service.NewEntryService(repo, index)
	handler := entryHandler.NewEntryHandler(entryService)
	auth := middleware.AuthMiddleware

	mux.Handle("/api/entries", http.HandlerFunc(handler.ListEntries))
	mux.Handle("/api/entries/get", middleware.OptionalAuthMiddleware(http.HandlerFunc(handler.GetEntry)))
	mux.Handle("/api/entries/drafts", auth(http.HandlerFunc(handler.ListDrafts)))
	mux.Handle("/api/entries/create", auth(http.HandlerFunc(handler.CreateEntry)))
	mux.Handle("/api/entries/save", auth(http.HandlerFunc(handler.SaveEntry)))
	mux.Handle("/api/entries/reindex", auth(http.HandlerFunc(handler.Reindex)))

	return middleware.CORSMiddleware(mux)
}
