package server

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"strings"
	"sync"
)

//go:embed static/*
var staticFiles embed.FS

func StaticFilesFS() fs.FS {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("Failed to create sub filesystem: " + err.Error())
	}
	return subFS
}

// asset is a static file loaded once with its content hash
type asset struct {
	data        []byte
	contentType string
	etag        string
}

var (
	assetsMu sync.Mutex
	assets   = map[string]*asset{}
)

func loadAsset(name string) (*asset, error) {
	assetsMu.Lock()
	defer assetsMu.Unlock()
	if a, ok := assets[name]; ok {
		return a, nil
	}

	data, err := fs.ReadFile(StaticFilesFS(), name)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	ctype := mime.TypeByExtension(strings.ToLower(path.Ext(name)))
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
		ctype += "; charset=utf-8"
	}
	sum := sha256.Sum256(data)

	a := &asset{data: data, contentType: ctype, etag: `"` + hex.EncodeToString(sum[:8]) + `"`}
	assets[name] = a
	return a, nil
}

// StreamFile writes an embedded static file, answering 304 when the browser's copy is current
func StreamFile(w http.ResponseWriter, r *http.Request, fileName string) error {
	a, err := loadAsset(fileName)
	if err != nil {
		return err
	}

	w.Header().Set("ETag", a.etag)
	if r.Header.Get("If-None-Match") == a.etag {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}
	w.Header().Set("Content-Type", a.contentType)
	if _, err := w.Write(a.data); err != nil {
		return fmt.Errorf("failed to write %s content: %w", fileName, err)
	}
	return nil
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if filePath == "" || filePath == "." {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		if err := StreamFile(w, r, filePath); err != nil {
			logError(r.Method, filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
		}
	}
}
