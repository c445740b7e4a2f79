package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kuapa-ai/kuapa/internal/agent"
	"github.com/kuapa-ai/kuapa/internal/config"
	"github.com/kuapa-ai/kuapa/internal/language"
	"github.com/kuapa-ai/kuapa/internal/llm"
	"github.com/kuapa-ai/kuapa/internal/retriever"
)

const version = "2.0.0"

// maxAudioSize caps voice uploads at 10MB
const maxAudioSize = 10 * 1024 * 1024

// allowedAudioTypes lists the voice-note formats we accept
var allowedAudioTypes = map[string]bool{
	"audio/ogg":   true,
	"audio/mpeg":  true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/mp3":   true,
	"audio/mp4":   true,
	"audio/m4a":   true,
	"audio/x-m4a": true,
	"audio/aac":   true,
	"audio/flac":  true,
	"audio/webm":  true,
}

// Advisor is the orchestration surface the server talks to
type Advisor interface {
	Ask(ctx context.Context, question, lang, phone string) (*agent.Answer, error)
	AskStream(ctx context.Context, question, lang string, handler llm.StreamHandler) error
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, string, error)
	Retrieve(query string, k int) []retriever.Result
	ChunkCount() int
	CheckHealth(ctx context.Context) error
}

// Server represents the HTTP API server
type Server struct {
	config  *config.Config
	router  *gin.Engine
	advisor Advisor
	logger  *slog.Logger
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, advisor Advisor, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		config:  cfg,
		router:  gin.New(),
		advisor: advisor,
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(corsMiddleware())

	s.router.GET("/", s.handleRoot)
	s.router.GET("/health", s.handleHealth)

	s.router.POST("/chat", s.handleChat)
	s.router.GET("/chat/stream", s.handleChatStream)
	s.router.POST("/voice", s.handleVoice)
	s.router.POST("/search", s.handleSearch)
}

// Run starts the server
func (s *Server) Run() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.logger.Info("starting Kuapa AI server", "addr", addr)
	return s.router.Run(addr)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// handleRoot describes the service
func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Kuapa AI - Agricultural Advisory Assistant",
		"version": version,
		"status":  "running",
		"features": gin.H{
			"text_chat":      true,
			"voice_messages": true,
			"multi_language": true,
		},
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	geminiStatus := "ok"
	if err := s.advisor.CheckHealth(ctx); err != nil {
		geminiStatus = fmt.Sprintf("error: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"version":        version,
		"gemini":         geminiStatus,
		"corpus_entries": s.advisor.ChunkCount(),
	})
}

// ChatRequest represents a text chat request
type ChatRequest struct {
	Message     string `json:"message" binding:"required"`
	Language    string `json:"language"`
	PhoneNumber string `json:"phone_number"`
}

// handleChat handles non-streaming chat requests
func (s *Server) handleChat(c *gin.Context) {
	requestID := uuid.NewString()
	start := time.Now()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("chat request received", "request_id", requestID)

	answer, err := s.advisor.Ask(c.Request.Context(), req.Message, req.Language, req.PhoneNumber)
	if err != nil {
		s.logger.Error("chat request failed", "request_id", requestID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": requestID})
		return
	}

	totalMS := time.Since(start).Milliseconds()
	s.logger.Info("chat request completed", "request_id", requestID, "duration_ms", totalMS)

	c.JSON(http.StatusOK, gin.H{
		"response":   answer.Response,
		"language":   answer.Language,
		"request_id": requestID,
		"timings_ms": gin.H{
			"rag":   answer.RetrievalMS,
			"llm":   answer.GenerationMS,
			"total": totalMS,
		},
	})
}

// handleChatStream handles SSE streaming chat requests
func (s *Server) handleChatStream(c *gin.Context) {
	message := c.Query("message")
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message required"})
		return
	}
	lang := c.Query("language")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	err := s.advisor.AskStream(c.Request.Context(), message, lang, func(content string, done bool) error {
		if done {
			c.SSEvent("done", "")
		} else {
			c.SSEvent("message", content)
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		c.SSEvent("error", err.Error())
		c.Writer.Flush()
	}
}

// handleVoice handles voice message requests: transcribe, then answer
func (s *Server) handleVoice(c *gin.Context) {
	requestID := uuid.NewString()
	start := time.Now()

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio file required", "request_id": requestID})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "" && !allowedAudioTypes[contentType] {
		s.logger.Warn("unsupported audio format", "request_id", requestID, "content_type", contentType)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      fmt.Sprintf("unsupported audio format: %s", contentType),
			"request_id": requestID,
		})
		return
	}
	if file.Size > maxAudioSize {
		s.logger.Warn("audio file too large", "request_id", requestID, "size", file.Size)
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      "audio file too large, maximum size is 10MB",
			"request_id": requestID,
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": requestID})
		return
	}
	defer f.Close()
	audio, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": requestID})
		return
	}

	asrStart := time.Now()
	transcript, lang, err := s.advisor.Transcribe(c.Request.Context(), audio, contentType)
	asrMS := time.Since(asrStart).Milliseconds()
	if err != nil {
		s.logger.Error("transcription failed", "request_id", requestID, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"transcribed_text": "",
			"response":         "Sorry, I couldn't understand the audio. Please try speaking more clearly or send a text message.",
			"language":         lang,
			"request_id":       requestID,
			"error":            err.Error(),
		})
		return
	}

	s.logger.Info("transcription successful", "request_id", requestID, "language", lang)

	answer, err := s.advisor.Ask(c.Request.Context(), transcript, lang, c.PostForm("phone_number"))
	if err != nil {
		s.logger.Error("voice request failed", "request_id", requestID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": requestID})
		return
	}

	totalMS := time.Since(start).Milliseconds()
	c.JSON(http.StatusOK, gin.H{
		"transcribed_text": transcript,
		"response":         answer.Response,
		"language":         answer.Language,
		"request_id":       requestID,
		"timings_ms": gin.H{
			"asr":   asrMS,
			"rag":   answer.RetrievalMS,
			"llm":   answer.GenerationMS,
			"total": totalMS,
		},
		"metadata": gin.H{
			"detected_language": answer.Language,
			"language_name":     language.Name(answer.Language),
			"file_size_kb":      float64(file.Size) / 1024,
		},
	})
}

// SearchRequest represents a retrieval debug request
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

// handleSearch exposes raw retrieval results
func (s *Server) handleSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.TopK <= 0 {
		req.TopK = s.config.Corpus.TopK
	}
	if req.TopK <= 0 {
		req.TopK = retriever.DefaultTopK
	}

	results := s.advisor.Retrieve(req.Query, req.TopK)
	c.JSON(http.StatusOK, gin.H{
		"query":   req.Query,
		"results": results,
	})
}
