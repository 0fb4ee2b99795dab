package transcript

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"debate-adjudicator/internal/apperr"
	"debate-adjudicator/internal/schemas"
)

// MaxUploadSize is the largest transcript file accepted (10 MiB).
const MaxUploadSize = 10 << 20

type Kind string

const (
	KindPDF  Kind = "application/pdf"
	KindText Kind = "text/plain"
)

var allowedExt = map[string]Kind{
	".pdf": KindPDF,
	".txt": KindText,
}

// FromEntries joins session transcript entries, in stored order, one per
// line as "[speaker] (type @ timestamp): text".
func FromEntries(entries []schemas.TranscriptEntry) (string, error) {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("[%s] (%s @ %s): %s", e.Speaker, e.Type, e.Timestamp, e.Text))
	}
	text := strings.Join(lines, "\n")
	if strings.TrimSpace(text) == "" {
		return "", apperr.New(apperr.Validation, "debate session has no transcript data")
	}
	return text, nil
}

// Upload describes a file handed in by a client. Size is -1 when unknown.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
}

// CheckUpload validates an upload's extension, declared media type and
// size. Nothing is read or written.
func CheckUpload(u Upload) (Kind, error) {
	if u.Filename == "" {
		return "", apperr.New(apperr.Validation, `no file uploaded; attach it to the "transcript" field`)
	}
	kind, ok := allowedExt[strings.ToLower(filepath.Ext(u.Filename))]
	if !ok {
		return "", apperr.New(apperr.Validation, "invalid file type; only PDF and TXT files are allowed")
	}
	if u.ContentType != "" {
		mt, _, err := mime.ParseMediaType(u.ContentType)
		if err != nil {
			return "", apperr.Wrap(apperr.Validation, err, "invalid content type %q", u.ContentType)
		}
		if mt != "application/octet-stream" && Kind(mt) != kind {
			return "", apperr.New(apperr.Validation, "invalid file type %q; only PDF and TXT files are allowed", mt)
		}
	}
	if u.Size > MaxUploadSize {
		return "", apperr.New(apperr.Validation, "file size too large; maximum size is 10MB")
	}
	return kind, nil
}

// Extracted is the text of an uploaded transcript plus the raw bytes for
// archiving.
type Extracted struct {
	Text string
	Kind Kind
	Data []byte
}

// Reader spools uploads to a temp directory for extraction.
type Reader struct {
	dir string
}

func NewReader(dir string) (*Reader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir %s: %w", dir, err)
	}
	return &Reader{dir: dir}, nil
}

// FromUpload validates u, writes src to a temp file and extracts its text.
// The temp file is removed on every return path.
func (r *Reader) FromUpload(src io.Reader, u Upload) (*Extracted, error) {
	kind, err := CheckUpload(u)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, apperr.New(apperr.Validation, "no file uploaded")
	}

	f, err := os.CreateTemp(r.dir, "transcript-*"+filepath.Ext(u.Filename))
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := f.Name()
	defer func() {
		_ = f.Close()
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove upload temp file", "path", path, "error", err)
		}
	}()

	var buf bytes.Buffer
	n, err := io.Copy(io.MultiWriter(f, &buf), io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, err, "read uploaded file")
	}
	if n > MaxUploadSize {
		return nil, apperr.New(apperr.Validation, "file size too large; maximum size is 10MB")
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("flush temp file: %w", err)
	}

	var text string
	switch kind {
	case KindPDF:
		text, err = extractPDF(path, n)
	default:
		text, err = readText(buf.Bytes())
	}
	if err != nil {
		return nil, err
	}
	return &Extracted{Text: text, Kind: kind, Data: buf.Bytes()}, nil
}

func readText(data []byte) (string, error) {
	text := strings.TrimPrefix(string(data), "\ufeff")
	if strings.TrimSpace(text) == "" {
		return "", apperr.New(apperr.Validation, "the uploaded file appears to be empty or contains no readable text")
	}
	return text, nil
}

func extractPDF(path string, size int64) (text string, err error) {
	if size == 0 {
		return "", apperr.New(apperr.Validation, "PDF file is empty")
	}
	// The PDF parser panics on some malformed documents.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", apperr.New(apperr.Validation, "failed to extract text from PDF: %v", rec)
		}
	}()

	f, rd, err := pdf.Open(path)
	if err != nil {
		return "", apperr.Wrap(apperr.Validation, err, "failed to extract text from PDF; ensure the PDF contains readable text")
	}
	defer f.Close()

	plain, err := rd.GetPlainText()
	if err != nil {
		return "", apperr.Wrap(apperr.Validation, err, "failed to extract text from PDF; ensure the PDF contains readable text")
	}
	var out bytes.Buffer
	if _, err := out.ReadFrom(plain); err != nil {
		return "", apperr.Wrap(apperr.Validation, err, "failed to read PDF text")
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", apperr.New(apperr.Validation, "no readable text found in PDF")
	}
	return out.String(), nil
}
