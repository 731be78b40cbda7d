// Package apitest runs a fake analysis backend for tests. It records every
// multipart request and answers with canned or scripted responses.
package apitest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/wavechat/component"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Request is one recorded call.
type Request struct {
	Path      string
	RequestID string
	// Fields are the text parts in wire order.
	Fields []Field
	// File is the uploaded file part, if any.
	File *File
}

// Field is one text part.
type Field struct {
	Name  string
	Value string
}

// File is the uploaded file part.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Value returns the first value of the named field.
func (r Request) Value(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Names returns the part names in wire order, file first when present.
func (r Request) Names() []string {
	names := make([]string, 0, len(r.Fields)+1)
	if r.File != nil {
		names = append(names, "file")
	}
	for _, f := range r.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Response is a scripted answer.
type Response struct {
	Status int
	// Body is written as is. Leave empty for no body.
	Body string
	// ContentType defaults to application/json.
	ContentType string
}

// Responder decides the answer for a recorded request. Returning nil falls
// back to the default handler.
type Responder func(req Request) *Response

// Server is the fake backend. It implements component.Component.
type Server struct {
	engine *gin.Engine

	mu        sync.Mutex
	ts        *httptest.Server
	requests  []Request
	responder map[string]Responder
	sessions  map[string]bool
}

var _ component.Component = (*Server)(nil)

// NewServer creates a fake backend with the three endpoints mounted.
func NewServer() *Server {
	s := &Server{
		engine:    gin.New(),
		responder: make(map[string]Responder),
		sessions:  make(map[string]bool),
	}
	s.engine.POST("/api/spectrogram", s.handle(s.spectrogram))
	s.engine.POST("/api/analyze", s.handle(s.analyze))
	s.engine.POST("/api/chat", s.handle(s.chat))
	return s
}

// Name implements component.Component.
func (s *Server) Name() string { return "apitest" }

// Start begins serving on a loopback port.
func (s *Server) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts == nil {
		s.ts = httptest.NewServer(s.engine)
	}
	return nil
}

// Stop shuts the listener down.
func (s *Server) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts != nil {
		s.ts.Close()
		s.ts = nil
	}
	return nil
}

// Health implements component.Component.
func (s *Server) Health(context.Context) component.Health {
	status := component.StatusHealthy
	if s.URL() == "" {
		status = component.StatusUnhealthy
	}
	return component.Health{Name: s.Name(), Status: status}
}

// URL returns the base URL, or "" before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ts == nil {
		return ""
	}
	return s.ts.URL
}

// On scripts the answer for path.
func (s *Server) On(path string, r Responder) {
	s.mu.Lock()
	s.responder[path] = r
	s.mu.Unlock()
}

// Fail makes every call to path answer status with body.
func (s *Server) Fail(path string, status int, body string) {
	s.On(path, func(Request) *Response { return &Response{Status: status, Body: body} })
}

// AddSession makes id a known session for the chat endpoint.
func (s *Server) AddSession(id string) {
	s.mu.Lock()
	s.sessions[id] = true
	s.mu.Unlock()
}

// Requests returns every recorded request.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the recorded requests for path.
func (s *Server) RequestsTo(path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Reset forgets recorded requests, scripted answers and sessions.
func (s *Server) Reset() {
	s.mu.Lock()
	s.requests = nil
	s.responder = make(map[string]Responder)
	s.sessions = make(map[string]bool)
	s.mu.Unlock()
}

func (s *Server) handle(fallback func(*gin.Context, Request)) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, err := record(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, req)
		responder := s.responder[req.Path]
		s.mu.Unlock()

		if responder != nil {
			if resp := responder(req); resp != nil {
				ct := resp.ContentType
				if ct == "" {
					ct = "application/json"
				}
				c.Data(resp.Status, ct, []byte(resp.Body))
				return
			}
		}
		fallback(c, req)
	}
}

// record reads the multipart body in wire order.
func record(c *gin.Context) (Request, error) {
	req := Request{Path: c.FullPath(), RequestID: c.GetHeader("X-Request-ID")}
	mr, err := c.Request.MultipartReader()
	if err != nil {
		return req, err
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return req, nil
		}
		if err != nil {
			return req, err
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return req, err
		}
		if part.FileName() != "" {
			req.File = &File{
				Name:        part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			}
			continue
		}
		req.Fields = append(req.Fields, Field{Name: part.FormName(), Value: string(data)})
	}
}

func (s *Server) spectrogram(c *gin.Context, req Request) {
	if req.File == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file is required"})
		return
	}
	start, _ := req.Value("startSec")
	end, _ := req.Value("endSec")
	c.JSON(http.StatusOK, gin.H{
		"image":    "data:image/png;base64,iVBORw0KGgo=",
		"startSec": start,
		"endSec":   end,
	})
}

func (s *Server) analyze(c *gin.Context, req Request) {
	if req.File == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "file is required"})
		return
	}
	if v, _ := req.Value("modelId"); v == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "modelId is required"})
		return
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = true
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"sessionId": id,
		"analysis":  "A steady groove in 4/4.",
	})
}

func (s *Server) chat(c *gin.Context, req Request) {
	id, _ := req.Value("sessionId")
	msg, _ := req.Value("message")

	s.mu.Lock()
	known := s.sessions[id]
	s.mu.Unlock()
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"detail": "unknown session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": "You said: " + msg})
}
