package server

import (
	"log"
	"net/http"

	"linecount/internal/gateway/handler"
	"linecount/internal/gateway/middleware"
)

func NewMux(lineCountHandler *handler.LineCountHandler, corsOrigin string, logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/line-count", lineCountHandler.HandleLineCount)
	mux.HandleFunc("/api/line-count/cached", lineCountHandler.HandleCached)
	mux.HandleFunc("/api/readme", lineCountHandler.HandleReadme)
	mux.HandleFunc("/health", lineCountHandler.HandleHealth)
	mux.HandleFunc("/ws/line-count", lineCountHandler.HandleWatch)
	mux.HandleFunc("/", lineCountHandler.HandleIndex)

	// Middleware
	return middleware.Logging(logger)(middleware.CORS(corsOrigin)(mux))
}
