// fake_backend.go - In-process stand-in for the analysis service
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/researchmate/webclient/internal/models"
)

// ReceivedUpload captures one request that reached the fake backend.
type ReceivedUpload struct {
	Method      string
	Path        string
	FieldNames  []string
	FileName    string
	ContentType string
	Data        []byte
}

// FakeBackend serves POST /upload and records every request it sees.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	status   int
	body     []byte
	received []ReceivedUpload
	block    chan struct{}
}

// NewFakeBackend starts a backend that answers 200 with an empty analysis.
func NewFakeBackend() *FakeBackend {
	fb := &FakeBackend{status: http.StatusOK}
	fb.body, _ = json.Marshal(models.UploadResponse{
		Analysis:    &models.AnalysisResult{},
		DownloadURL: "/download/formatted.docx",
	})
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	return fb
}

// URL returns the backend origin.
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// Close shuts the server down.
func (fb *FakeBackend) Close() {
	fb.Server.Close()
}

// RespondJSON sets the status and a JSON-encoded body for later requests.
func (fb *FakeBackend) RespondJSON(status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	fb.RespondRaw(status, data)
}

// RespondRaw sets the status and raw body for later requests.
func (fb *FakeBackend) RespondRaw(status int, body []byte) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.status = status
	fb.body = body
}

// Block makes requests wait until the returned function is called.
func (fb *FakeBackend) Block() (release func()) {
	ch := make(chan struct{})
	fb.mu.Lock()
	fb.block = ch
	fb.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// Received returns a copy of every recorded request.
func (fb *FakeBackend) Received() []ReceivedUpload {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]ReceivedUpload, len(fb.received))
	copy(out, fb.received)
	return out
}

// Count returns the number of recorded requests.
func (fb *FakeBackend) Count() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.received)
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	rec := ReceivedUpload{Method: r.Method, Path: r.URL.Path}

	if err := r.ParseMultipartForm(32 << 20); err == nil && r.MultipartForm != nil {
		for name := range r.MultipartForm.File {
			rec.FieldNames = append(rec.FieldNames, name)
		}
		for name := range r.MultipartForm.Value {
			rec.FieldNames = append(rec.FieldNames, name)
		}
		if headers := r.MultipartForm.File["file"]; len(headers) > 0 {
			rec.FileName = headers[0].Filename
			rec.ContentType = headers[0].Header.Get("Content-Type")
			if f, err := headers[0].Open(); err == nil {
				rec.Data, _ = io.ReadAll(f)
				f.Close()
			}
		}
	}

	fb.mu.Lock()
	fb.received = append(fb.received, rec)
	status, body, block := fb.status, fb.body, fb.block
	fb.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
