// Package httpapi implements the upload/detect/export HTTP surface (C9) on
// a Go 1.22+ pattern-based net/http.ServeMux rather than a goa-generated
// transport, the same way the WebSocket upgrade handler sits outside
// goa-gen.
package httpapi

import (
	"context"
	"log"
	"net/http"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"

	"faceguard/internal/analyzer"
	"faceguard/internal/auth"
	"faceguard/internal/faceengine"
	"faceguard/internal/health"
	"faceguard/internal/pixelate"
	"faceguard/internal/store"
	"faceguard/internal/types"
	"faceguard/internal/videoio"
)

// videoIDPattern is the path-traversal guard: a video ID must be a
// version-4 UUID, nothing else is accepted as a filename component.
var videoIDPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

var allowedExtensions = map[string]bool{
	".mp4": true, ".webm": true, ".mov": true, ".avi": true,
}

var allowedMIMETypes = map[string]bool{
	"video/mp4": true, "video/webm": true, "video/quicktime": true, "video/x-msvideo": true,
}

// exportCacheEntry remembers the spec and output path of the most recent
// export for one videoId, so a later GET /export?token=... can re-serve
// the cached bytes without re-running the pipeline.
type exportCacheEntry struct {
	outputPath string
	spec       types.ExportSpec
}

// Server holds every collaborator the HTTP handlers need.
type Server struct {
	store       *store.Store
	analyzer    *analyzer.Analyzer
	engine      *faceengine.Engine
	exporter    *pixelate.Exporter
	tokens      *auth.ExportTokenIssuer
	checker     *health.Checker
	uploadDir   string
	ffmpegPath  string
	ffprobePath string
	logger      *log.Logger

	exportMu    sync.Mutex
	exportCache map[string]exportCacheEntry
}

// New builds a Server wired to its collaborators.
func New(
	st *store.Store,
	an *analyzer.Analyzer,
	engine *faceengine.Engine,
	exp *pixelate.Exporter,
	tokens *auth.ExportTokenIssuer,
	checker *health.Checker,
	uploadDir, ffmpegPath, ffprobePath string,
	logger *log.Logger,
) *Server {
	return &Server{
		store:       st,
		analyzer:    an,
		engine:      engine,
		exporter:    exp,
		tokens:      tokens,
		checker:     checker,
		uploadDir:   uploadDir,
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		logger:      logger,
		exportCache: make(map[string]exportCacheEntry),
	}
}

// Routes builds the method+path mux for the HTTP surface.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload-video", s.handleUploadVideo)
	mux.HandleFunc("POST /detect-video/{videoId}", s.handleDetectVideo)
	mux.HandleFunc("POST /export/{videoId}", s.handleExportPost)
	mux.HandleFunc("GET /export/{videoId}", s.handleExportGet)
	mux.HandleFunc("POST /detect-batch", s.handleDetectBatch)
	mux.HandleFunc("POST /detect", s.handleDetect)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.checker.Check(r.Context()))
}

// inputPath returns the on-disk path for a stored input.
func (s *Server) inputPath(id string) string {
	return s.uploadDir + "/" + id + ".mp4"
}

// blurredPath returns the on-disk path for a video's pixelated export.
func (s *Server) blurredPath(id string) string {
	return s.uploadDir + "/" + id + "_blurred.mp4"
}

// resolveVideo validates the path-supplied id and loads its asset row,
// touching last-accessed-at so the retention sweeper leaves it alone.
func (s *Server) resolveVideo(w http.ResponseWriter, r *http.Request) (store.VideoAssetRecord, bool) {
	id := r.PathValue("videoId")
	if !videoIDPattern.MatchString(id) {
		writeError(w, http.StatusBadRequest, "invalid video id")
		return store.VideoAssetRecord{}, false
	}
	asset, err := s.store.Get(id)
	if err == store.ErrNotFound {
		writeError(w, http.StatusNotFound, "video not found")
		return store.VideoAssetRecord{}, false
	}
	if err != nil {
		s.logger.Printf("[httpapi] get asset %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return store.VideoAssetRecord{}, false
	}
	if _, err := os.Stat(asset.InputPath); err != nil {
		writeError(w, http.StatusNotFound, "video not found")
		return store.VideoAssetRecord{}, false
	}
	_ = s.store.Touch(id)
	return asset, true
}

func newVideoID() string { return uuid.New().String() }

func probeWithin(ctx context.Context, ffprobePath, path string, timeout time.Duration) (types.VideoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return videoio.Probe(ctx, ffprobePath, path)
}
