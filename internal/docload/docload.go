// Package docload reads source documents into plain text for extraction.
// Formats are dispatched by extension through a registry so callers can plug
// in converters for formats the default build does not parse.
package docload

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/kestrelhq/ddrgen/internal/logging"
	"github.com/kestrelhq/ddrgen/types"
)

// maxDocumentSize caps how much of a document is read. Reports are short;
// anything larger is almost certainly the wrong file.
const maxDocumentSize = 512 * 1024

// Loader reads one document format into plain text.
type Loader func(fs afero.Fs, path string) (string, error)

// Registry dispatches document loading by file extension. Load failures are
// fatal for the run: a missing or unreadable source document cannot be
// retried into existence.
type Registry struct {
	fs      afero.Fs
	loaders map[string]Loader
	log     *slog.Logger
}

// NewRegistry returns a registry with the text-based formats wired. PDF and
// Word input is registered but rejected with conversion guidance; callers
// with a converter can Register their own loader over those extensions.
func NewRegistry(fs afero.Fs) *Registry {
	r := &Registry{
		fs:      fs,
		loaders: make(map[string]Loader),
		log:     logging.New("docload"),
	}
	r.Register(".txt", plainText)
	r.Register(".md", plainText)
	r.Register(".markdown", plainText)
	r.Register(".pdf", unsupported("PDF", "export the report as .txt or .md first"))
	r.Register(".docx", unsupported("Word", "export the report as .txt or .md first"))
	return r
}

// Register installs a loader for an extension (with leading dot), replacing
// any existing one.
func (r *Registry) Register(ext string, loader Loader) {
	r.loaders[strings.ToLower(ext)] = loader
}

// Supported returns the registered extensions in sorted order.
func (r *Registry) Supported() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load reads the document at path into plain text. All failures come back as
// document-load errors, which the pipeline treats as fatal for the document.
func (r *Registry) Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	loader, ok := r.loaders[ext]
	if !ok {
		return "", types.NewDocumentLoadError(path,
			fmt.Errorf("unsupported format %q (supported: %s)", ext, strings.Join(r.Supported(), ", ")))
	}

	info, err := r.fs.Stat(path)
	if err != nil {
		return "", types.NewDocumentLoadError(path, err)
	}
	if info.IsDir() {
		return "", types.NewDocumentLoadError(path, fmt.Errorf("path is a directory"))
	}
	if info.Size() > maxDocumentSize {
		return "", types.NewDocumentLoadError(path,
			fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), maxDocumentSize))
	}

	content, err := loader(r.fs, path)
	if err != nil {
		return "", types.NewDocumentLoadError(path, err)
	}
	if strings.TrimSpace(content) == "" {
		r.log.Warn("document is empty", "path", path)
	}
	r.log.Debug("document loaded", "path", path, "bytes", len(content))
	return content, nil
}

func plainText(fs afero.Fs, path string) (string, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func unsupported(format, hint string) Loader {
	return func(afero.Fs, string) (string, error) {
		return "", fmt.Errorf("%s parsing is not built in; %s", format, hint)
	}
}
