package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Frame is one still image taken from the camera.
type Frame struct {
	Data       []byte
	MIMEType   string
	CapturedAt time.Time
}

// NewFrame sniffs the image type of data.
func NewFrame(data []byte, capturedAt time.Time) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	return Frame{
		Data:       data,
		MIMEType:   http.DetectContentType(data),
		CapturedAt: capturedAt,
	}, nil
}

// Format is the image subtype, e.g. "jpeg" for image/jpeg.
func (f Frame) Format() string {
	mime, _, _ := strings.Cut(f.MIMEType, ";")
	_, sub, ok := strings.Cut(mime, "/")
	if !ok {
		return "jpeg"
	}
	return sub
}

// DataURL encodes the frame for providers that accept inline images.
func (f Frame) DataURL() string {
	return fmt.Sprintf("data:image/%s;base64,%s", f.Format(), base64.StdEncoding.EncodeToString(f.Data))
}

// FrameSource supplies the current camera frame on demand.
type FrameSource interface {
	Frame(ctx context.Context) (Frame, error)
	Describe() string
}

// FileSource re-reads a snapshot file that an external capture tool keeps
// overwriting.
type FileSource struct {
	Path string
}

func (s FileSource) Frame(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return Frame{}, fmt.Errorf("read frame: %w", err)
	}
	info, err := os.Stat(s.Path)
	capturedAt := time.Now()
	if err == nil {
		capturedAt = info.ModTime()
	}
	return NewFrame(data, capturedAt)
}

func (s FileSource) Describe() string {
	return "snapshot " + s.Path
}

// CommandSource runs a capture command for each frame and reads the image
// from its stdout, e.g. ["fswebcam", "--no-banner", "-"].
type CommandSource struct {
	Argv []string
}

func (s CommandSource) Frame(ctx context.Context) (Frame, error) {
	if len(s.Argv) == 0 {
		return Frame{}, fmt.Errorf("capture command is empty")
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Argv[0], s.Argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Frame{}, fmt.Errorf("capture command: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return NewFrame(stdout.Bytes(), time.Now())
}

func (s CommandSource) Describe() string {
	return "command " + strings.Join(s.Argv, " ")
}
