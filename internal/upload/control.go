// Package upload implements the upload control: it turns dropped or picked
// files into a single validated selection and hands it to a callback.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sync"

	"github.com/researchmate/webclient/internal/models"
)

// InvalidTypeAlert is shown to the user when a non-DOCX file is chosen.
const InvalidTypeAlert = "Please upload a .docx file"

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrInputDisabled   = errors.New("input disabled while an upload is in progress")
	ErrNoFile          = errors.New("no file provided")
)

// EventType is the kind of interaction delivered to the control.
type EventType string

const (
	EventDragEnter EventType = "dragenter"
	EventDragOver  EventType = "dragover"
	EventDragLeave EventType = "dragleave"
	EventDrop      EventType = "drop"
	EventChange    EventType = "change"
)

// ParseEventType maps the "source" field sent by the page to an event type.
// Anything other than a drop is treated as the file picker.
func ParseEventType(source string) EventType {
	if source == string(EventDrop) {
		return EventDrop
	}
	return EventChange
}

// Event is a single interaction. Files is only read for drop and change.
type Event struct {
	Type  EventType
	Files []*models.SelectedFile
}

// SubmitFunc receives a validated file.
type SubmitFunc func(file *models.SelectedFile) error

// Control tracks drag highlighting and the disabled flag and validates files
// before invoking its callback. It never performs the upload itself.
//
// static/app.js runs the same state machine in the browser, where drag
// events happen. The upload handler builds one Control per request and only
// feeds it the resulting drop or change event, so on the server the drag
// state is always inactive; the drag events exist so both sides share one
// definition of the lifecycle.
type Control struct {
	mu         sync.Mutex
	onSubmit   SubmitFunc
	dragActive bool
	disabled   bool
}

// NewControl creates a control that forwards accepted files to onSubmit.
func NewControl(onSubmit SubmitFunc) *Control {
	return &Control{onSubmit: onSubmit}
}

// SetDisabled enables or disables file input.
func (c *Control) SetDisabled(disabled bool) {
	c.mu.Lock()
	c.disabled = disabled
	c.mu.Unlock()
}

// Disabled reports whether file input is currently ignored.
func (c *Control) Disabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled
}

// DragActive reports whether a drag is hovering over the drop zone. The
// page highlights the zone from its own copy of this state.
func (c *Control) DragActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dragActive
}

// Handle applies an event. Drop and change events converge on the same
// validation path; only the first file is considered.
func (c *Control) Handle(ev Event) error {
	c.mu.Lock()
	switch ev.Type {
	case EventDragEnter, EventDragOver:
		c.dragActive = true
		c.mu.Unlock()
		return nil
	case EventDragLeave:
		c.dragActive = false
		c.mu.Unlock()
		return nil
	case EventDrop:
		c.dragActive = false
	case EventChange:
	default:
		c.mu.Unlock()
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	disabled := c.disabled
	c.mu.Unlock()

	if disabled {
		return ErrInputDisabled
	}
	if len(ev.Files) == 0 || ev.Files[0] == nil {
		return ErrNoFile
	}
	return c.handleFile(ev.Files[0])
}

func (c *Control) handleFile(file *models.SelectedFile) error {
	if !file.IsDocx() {
		return fmt.Errorf("%w: %q", ErrInvalidFileType, file.ContentType)
	}
	if c.onSubmit == nil {
		return nil
	}
	return c.onSubmit(file)
}

// FileFromHeader reads a multipart file part into memory, keeping the
// content type the browser declared for it.
func FileFromHeader(fh *multipart.FileHeader) (*models.SelectedFile, error) {
	if fh == nil {
		return nil, ErrNoFile
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("reading uploaded file: %w", err)
	}

	return &models.SelectedFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        int64(len(data)),
		Data:        data,
	}, nil
}
