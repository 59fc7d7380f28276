package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/namnv2496/gameforge/internal/journal"
	"github.com/namnv2496/gameforge/internal/pipeline"
)

// Runner starts one pipeline run (see pipeline.Forge).
type Runner interface {
	Run(ctx context.Context, runID, prompt string) (pipeline.Report, error)
}

// RunStore reads the run journal.
type RunStore interface {
	GetRun(ctx context.Context, id string) (journal.Run, error)
	ListRuns(ctx context.Context, limit int) ([]journal.Run, error)
}

// Server exposes the pipeline over HTTP. Only one run is in flight at a time
// because every run overwrites the same artifact.
type Server struct {
	route   *gin.Engine
	runner  Runner
	runs    RunStore
	baseCtx context.Context
	busy    atomic.Bool
	wg      sync.WaitGroup
}

// NewServer builds the routes. Runs started over HTTP live as long as ctx.
func NewServer(ctx context.Context, runner Runner, runs RunStore, metrics http.Handler, ws http.HandlerFunc) *Server {
	route := gin.New()
	route.Use(gin.Recovery())

	route.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"*"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"*"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return origin == "*"
		},
		MaxAge: 12 * time.Hour,
	}))

	s := &Server{route: route, runner: runner, runs: runs, baseCtx: ctx}
	route.POST("/generate", s.generateHandler)
	route.GET("/runs", s.listRunsHandler)
	route.GET("/runs/:id", s.getRunHandler)
	if metrics != nil {
		route.GET("/metrics", gin.WrapH(metrics))
	}
	if ws != nil {
		route.GET("/ws", gin.WrapF(ws))
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.route
}

// ListenAndServe serves on addr until the base context is done, then waits
// for the in-flight run.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.route, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-s.baseCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("HTTP shutdown error", "error", err)
		}
	}()
	slog.Info("HTTP server started", "addr", addr)
	err := srv.ListenAndServe()
	s.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Wait blocks until the in-flight run, if any, has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}
