// Package server exposes the orchestrator over HTTP.
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mosaibah/askdocs/config"
	"github.com/mosaibah/askdocs/internal/docstore"
	"github.com/mosaibah/askdocs/internal/orchestrator"
	"github.com/mosaibah/askdocs/internal/store"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the shared collaborators handlers run against. Archive and
// History may be nil when persistence is not configured.
type Deps struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator
	Store        docstore.Store
	Archive      *store.Archive
	History      store.History
}

type queryRequest struct {
	Query   string `json:"query"`
	Mode    string `json:"mode"`
	Session string `json:"session"`
}

type planRequest struct {
	Query string `json:"query"`
}

// New builds the echo instance with all routes registered.
func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	allowOrigins := deps.Config.Server.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/query", handleQuery(deps))
	api.POST("/plan", handlePlan(deps))
	api.GET("/status/:id", handleStatus(deps))
	api.POST("/upload", handleUpload(deps))
	api.GET("/documents/count", handleCount(deps))
	api.GET("/history", handleHistory(deps))

	return e
}

// Run starts the server on cfg.Server.Address and blocks.
func Run(deps Deps) error {
	e := New(deps)
	return e.Start(deps.Config.Server.Address)
}

func handleQuery(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req queryRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if strings.TrimSpace(req.Query) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "query is required")
		}
		mode := orchestrator.Mode(req.Mode)
		switch mode {
		case orchestrator.ModeAuto, orchestrator.ModeDirect, orchestrator.ModePlan:
		case "":
			mode = orchestrator.ModeAuto
		default:
			return echo.NewHTTPError(http.StatusBadRequest, "mode must be auto, direct or plan")
		}

		ctx := c.Request().Context()
		answer, err := deps.Orchestrator.Respond(ctx, req.Query, mode)

		recordQuery(ctx, deps, req, answer, err)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, err.Error())
		}
		return c.JSON(http.StatusOK, answer)
	}
}

// recordQuery archives the outcome and appends the conversation turn.
// Persistence failures are logged, never surfaced to the caller.
func recordQuery(ctx context.Context, deps Deps, req queryRequest, answer orchestrator.Answer, respErr error) {
	logger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	if deps.Archive != nil {
		id := answer.RequestID
		if id == "" {
			id = uuid.NewString()
		}
		rec := store.QueryRecord{
			ID:       id,
			Query:    req.Query,
			Answer:   answer.Text,
			Source:   string(answer.Source),
			PlanText: answer.PlanText,
			Steps:    len(answer.Steps),
			Success:  respErr == nil,
		}
		if err := deps.Archive.SaveQuery(ctx, rec); err != nil {
			logger.Printf("archive save failed: %v", err)
		}
	}
	if deps.History != nil && req.Session != "" && respErr == nil {
		if err := deps.History.Append(ctx, req.Session, store.Message{Role: "user", Text: req.Query}); err != nil {
			logger.Printf("history append failed: %v", err)
		}
		if err := deps.History.Append(ctx, req.Session, store.Message{Role: "assistant", Text: answer.Text}); err != nil {
			logger.Printf("history append failed: %v", err)
		}
	}
}

func handlePlan(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req planRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
		if strings.TrimSpace(req.Query) == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "query is required")
		}
		text, parsed, err := deps.Orchestrator.GeneratePlan(c.Request().Context(), req.Query)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"plan":  text,
			"steps": parsed.Steps,
		})
	}
}

func handleStatus(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		status, ok := deps.Orchestrator.GetStatus(id)
		if !ok {
			return echo.NewHTTPError(http.StatusNotFound, "unknown request id")
		}
		return c.JSON(http.StatusOK, status)
	}
}

func handleUpload(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "file field is required")
		}
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "cannot open upload")
		}
		defer src.Close()

		dir := deps.Config.DocStore.Bleve.DocumentsDir
		if dir == "" {
			dir = "uploads"
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		name := filepath.Base(fh.Filename)
		dst := filepath.Join(dir, name)
		out, err := os.Create(dst)
		if err != nil {
			return err
		}
		if _, err := io.Copy(out, src); err != nil {
			out.Close()
			return err
		}
		out.Close()

		indexed, err := docstore.LoadDir(c.Request().Context(), deps.Store, dir, nil)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, fmt.Sprintf("indexing failed: %v", err))
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"file":    name,
			"indexed": indexed,
		})
	}
}

func handleCount(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		n, err := deps.Store.Count(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]int{"count": n})
	}
}

func handleHistory(deps Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		if deps.History == nil {
			return echo.NewHTTPError(http.StatusNotImplemented, "history not configured")
		}
		session := c.QueryParam("session")
		if session == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "session is required")
		}
		msgs, err := deps.History.Recent(c.Request().Context(), session, 20)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, msgs)
	}
}
