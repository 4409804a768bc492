package server

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/avnlearn/manim-recorder/log"
)

//go:embed index.html
var indexHTML []byte

// Server collects voiceover takes uploaded from a browser. It doubles
// as a voiceover.Recorder: Record publishes the prompt and blocks
// until the narrator uploads a take for it.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
	clock  func() time.Time

	mu     sync.Mutex
	dir    string
	prompt string
	takes  chan string
}

func New(dir string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	s := &Server{
		engine: engine,
		clock:  time.Now,
		dir:    dir,
		takes:  make(chan string, 1),
	}
	engine.GET("/", s.index)
	engine.GET("/prompt", s.getPrompt)
	engine.POST("/upload", s.upload)
	engine.GET("/uploads/:filename", s.serveUpload)
	return s
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.srv = &http.Server{Addr: addr, Handler: s.engine}
	errc := make(chan error, 1)
	go func() {
		log.Infof("recorder page on http://%s", addr)
		errc <- s.srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Record implements voiceover.Recorder. It publishes prompt on the
// page and waits for the narrator's upload.
func (s *Server) Record(dir, prompt string) (string, error) {
	s.mu.Lock()
	s.dir = dir
	s.prompt = prompt
	s.mu.Unlock()

	name := <-s.takes
	s.mu.Lock()
	s.prompt = ""
	s.mu.Unlock()
	return name, nil
}

func (s *Server) index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

func (s *Server) getPrompt(c *gin.Context) {
	s.mu.Lock()
	prompt := s.prompt
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"prompt": prompt})
}

func (s *Server) upload(c *gin.Context) {
	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "no audio file in request",
		})
		return
	}

	s.mu.Lock()
	dir := s.dir
	s.mu.Unlock()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	name := s.nextTakeName(dir, filepath.Ext(file.Filename))
	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	log.Infof("upload saved: %s", name)

	select {
	case s.takes <- name:
	default:
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"message":  "take saved",
		"filename": name,
	})
}

func (s *Server) serveUpload(c *gin.Context) {
	// Base strips any path components, so ../../ never escapes dir.
	name := filepath.Base(c.Param("filename"))
	s.mu.Lock()
	dir := s.dir
	s.mu.Unlock()
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "no such take"})
		return
	}
	c.File(path)
}

// nextTakeName picks a timestamped name, suffixing when a take from
// the same second already exists.
func (s *Server) nextTakeName(dir, ext string) string {
	if ext == "" {
		ext = ".wav"
	}
	stamp := s.clock().Format("20060102_150405")
	name := fmt.Sprintf("REC_%s%s", stamp, ext)
	for seq := 2; ; seq++ {
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("REC_%s_%d%s", stamp, seq, ext)
	}
}
