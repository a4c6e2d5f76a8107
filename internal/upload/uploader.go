package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Request describes one upload attempt.
type Request struct {
	FileURI  string
	FileName string
	Endpoint string
}

// Uploader sends a recording artifact to the server. An attempt succeeds iff
// the server answers HTTP 200.
type Uploader interface {
	Upload(ctx context.Context, req Request) error
}

// StatusError is a non-200 answer from the server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// HTTPUploader implements Uploader over multipart POST.
type HTTPUploader struct {
	httpClient *http.Client
}

func NewHTTPUploader(timeout time.Duration) *HTTPUploader {
	return &HTTPUploader{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, req Request) error {
	f, err := os.Open(localPath(req.FileURI))
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(req.FileName)))
	header.Set("Content-Type", mimeTypeForName(req.FileName))

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to copy artifact data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.Endpoint, &buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return nil
}

// localPath strips an optional file:// scheme from an artifact URI.
func localPath(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}

// mimeTypeForName maps the artifact file name to the declared MIME type of
// the upload part. The server contract declares audio/m4a for recordings, so
// that is the fallback for unknown extensions.
func mimeTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	default:
		return "audio/m4a"
	}
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, `\"`).Replace(s)
}
