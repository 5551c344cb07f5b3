package server

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/benjaminschreck/docforge/pkg/docforge"
)

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{session}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /api/sessions/{session}", s.handleDeleteSession)

	s.mux.HandleFunc("POST /api/sessions/{session}/paragraphs", s.handleAddParagraph)
	s.mux.HandleFunc("POST /api/sessions/{session}/paragraphs/{paragraph}/subparagraphs", s.handleAddSubParagraph)
	s.mux.HandleFunc("POST /api/sessions/{session}/paragraphs/{paragraph}/comments", s.handleAddComment)
	s.mux.HandleFunc("POST /api/sessions/{session}/tables", s.handleAddTable)
	s.mux.HandleFunc("POST /api/sessions/{session}/images", s.handleAddImage)
	s.mux.HandleFunc("PUT /api/sessions/{session}/cover", s.handleSelectCover)
	s.mux.HandleFunc("DELETE /api/sessions/{session}/cover", s.handleClearCover)

	s.mux.HandleFunc("GET /api/sessions/{session}/preview", s.handlePreview)
	s.mux.HandleFunc("GET /api/sessions/{session}/graph", s.handleGraph)
	s.mux.HandleFunc("GET /api/sessions/{session}/graph/ws", s.handleGraphStream)
	s.mux.HandleFunc("GET /api/sessions/{session}/export", s.handleExport)

	s.mux.HandleFunc("GET /api/templates", s.handleListTemplates)
	s.mux.HandleFunc("POST /api/templates/scan", s.handleScanTemplates)
	s.mux.HandleFunc("GET /api/templates/{name}/preview", s.handleTemplatePreview)
}

// TextRequest is the body of paragraph, sub-paragraph and comment requests.
type TextRequest struct {
	Text string `json:"text"`
}

// TableRequest is the body of a table request.
type TableRequest struct {
	Rows  int        `json:"rows"`
	Cols  int        `json:"cols"`
	Cells [][]string `json:"cells,omitempty"`
}

// CoverRequest is the body of a cover selection.
type CoverRequest struct {
	Name string `json:"name"`
}

// ScanRequest is the body of a catalog scan. Folder is relative to templates_dir, or
// an absolute path inside it; empty rescans templates_dir.
type ScanRequest struct {
	Folder string `json:"folder"`
}

// CreatedResponse reports the id of a new entity. Ordinal is set for children.
type CreatedResponse struct {
	ID       int    `json:"id,omitempty"`
	ParentID int    `json:"parent_id,omitempty"`
	Ordinal  int    `json:"ordinal,omitempty"`
	NodeID   string `json:"node_id"`
}

// SessionSummary describes a session's content.
type SessionSummary struct {
	ID         string                  `json:"id"`
	Created    string                  `json:"created"`
	Paragraphs []docforge.Paragraph    `json:"paragraphs"`
	Tables     []docforge.Table        `json:"tables"`
	Images     []docforge.Image        `json:"images"`
	Cover      *docforge.CoverTemplate `json:"cover,omitempty"`
}

// TemplateInfo describes a catalog entry.
type TemplateInfo struct {
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	PreviewURL string `json:"preview_url"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func summarize(sess *Session, store *docforge.Store) SessionSummary {
	sum := SessionSummary{
		ID:         sess.ID,
		Created:    sess.Created.UTC().Format(time.RFC3339),
		Paragraphs: store.Paragraphs(),
		Tables:     store.Tables(),
		Images:     store.Images(),
	}
	if cover, ok := store.Cover(); ok {
		sum.Cover = &cover
	}
	return sum
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	var sum SessionSummary
	_ = sess.Do(func(store *docforge.Store) error {
		sum = summarize(sess, store)
		return nil
	})
	respond(w, http.StatusCreated, sum)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("session"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var sum SessionSummary
	_ = sess.Do(func(store *docforge.Store) error {
		sum = summarize(sess, store)
		return nil
	})
	respond(w, http.StatusOK, sum)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("session")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mutate runs fn against the session store and publishes the new graph on success.
func (s *Server) mutate(r *http.Request, fn func(store *docforge.Store) error) error {
	sess, err := s.sessions.Get(r.PathValue("session"))
	if err != nil {
		return err
	}
	return sess.Do(func(store *docforge.Store) error {
		if err := fn(store); err != nil {
			return err
		}
		s.hub.Publish(sess.ID, docforge.Project(store))
		return nil
	})
}

func paragraphID(r *http.Request) (int, error) {
	raw := r.PathValue("paragraph")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, docforge.NewValidationError("paragraph", fmt.Sprintf("invalid paragraph id %q", raw))
	}
	return id, nil
}

func (s *Server) handleAddParagraph(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var resp CreatedResponse
	err := s.mutate(r, func(store *docforge.Store) error {
		id, err := store.AddParagraph(req.Text)
		resp = CreatedResponse{ID: id, NodeID: docforge.ParagraphNodeID(id)}
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, resp)
}

func (s *Server) handleAddSubParagraph(w http.ResponseWriter, r *http.Request) {
	s.addChild(w, r, (*docforge.Store).AddSubParagraph, docforge.SubParagraphNodeID)
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	s.addChild(w, r, (*docforge.Store).AddComment, docforge.CommentNodeID)
}

func (s *Server) addChild(
	w http.ResponseWriter,
	r *http.Request,
	add func(*docforge.Store, int, string) (int, error),
	nodeID func(docforge.ChildRef) string,
) {
	parent, err := paragraphID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req TextRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var resp CreatedResponse
	err = s.mutate(r, func(store *docforge.Store) error {
		ordinal, err := add(store, parent, req.Text)
		ref := docforge.ChildRef{ParentID: parent, Ordinal: ordinal}
		resp = CreatedResponse{ParentID: parent, Ordinal: ordinal, NodeID: nodeID(ref)}
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, resp)
}

func (s *Server) handleAddTable(w http.ResponseWriter, r *http.Request) {
	var req TableRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var resp CreatedResponse
	err := s.mutate(r, func(store *docforge.Store) error {
		id, err := store.AddTable(req.Rows, req.Cols, req.Cells)
		resp = CreatedResponse{ID: id, NodeID: docforge.TableNodeID(id)}
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, resp)
}

// readImage accepts either a multipart form with a "file" field or a raw body.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return "", nil, err
			}
			return "", nil, docforge.NewValidationError("file", err.Error())
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, docforge.NewValidationError("file", "multipart field \"file\" is required")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, err
		}
		return header.Filename, data, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, err
	}
	return r.URL.Query().Get("name"), data, nil
}

func (s *Server) handleAddImage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Get(r.PathValue("session")); err != nil {
		s.fail(w, r, err)
		return
	}
	name, data, err := s.readImage(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var resp CreatedResponse
	err = s.mutate(r, func(store *docforge.Store) error {
		id, err := store.AddNamedImage(name, data)
		resp = CreatedResponse{ID: id, NodeID: docforge.ImageNodeID(id)}
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusCreated, resp)
}

func (s *Server) handleSelectCover(w http.ResponseWriter, r *http.Request) {
	var req CoverRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	catalog := s.Catalog()
	var cover docforge.CoverTemplate
	err := s.mutate(r, func(store *docforge.Store) error {
		if err := store.SelectCover(catalog, req.Name); err != nil {
			return err
		}
		cover, _ = store.Cover()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, cover)
}

func (s *Server) handleClearCover(w http.ResponseWriter, r *http.Request) {
	err := s.mutate(r, func(store *docforge.Store) error {
		store.ClearCover()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("session"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var blocks []docforge.DisplayBlock
	_ = sess.Do(func(store *docforge.Store) error {
		blocks = docforge.RenderPreview(store)
		return nil
	})

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, docforge.RenderMarkdown(blocks))
		return
	}
	respondWithMeta(w, http.StatusOK, blocks, meta(len(blocks)))
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("session"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var g *docforge.Graph
	_ = sess.Do(func(store *docforge.Store) error {
		g = docforge.Project(store)
		return nil
	})
	respond(w, http.StatusOK, g)
}

func (s *Server) handleGraphStream(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("session"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var g *docforge.Graph
	_ = sess.Do(func(store *docforge.Store) error {
		g = docforge.Project(store)
		return nil
	})
	s.hub.Serve(w, r, sess.ID, g)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("session"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var data []byte
	err = sess.Do(func(store *docforge.Store) error {
		if store.IsEmpty() {
			return docforge.NewValidationError("content", "no content to generate")
		}
		var err error
		data, err = s.exporter.Export(r.Context(), store)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	etag := `"` + docforge.ContentHash(data) + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", docforge.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", docforge.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	catalog := s.Catalog()
	templates := []TemplateInfo{}
	if catalog != nil {
		for _, name := range catalog.Names() {
			title, err := catalog.Title(name)
			if err != nil {
				s.log.Warn().Err(err).Str("template", name).Msg("failed to read template title")
			}
			templates = append(templates, TemplateInfo{
				Name:       name,
				Title:      title,
				PreviewURL: "/api/templates/" + url.PathEscape(name) + "/preview",
			})
		}
	}
	respondWithMeta(w, http.StatusOK, templates, meta(len(templates)))
}

func (s *Server) handleScanTemplates(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	folder, err := s.templateFolder(req.Folder)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	catalog, err := docforge.ScanCatalog(folder, docforge.WithCatalogLogger(s.log))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.setCatalog(catalog)
	names := catalog.Names()
	respondWithMeta(w, http.StatusOK, map[string]interface{}{
		"folder":    catalog.Folder(),
		"templates": names,
	}, meta(len(names)))
}

// templateFolder resolves a requested scan folder and rejects anything outside
// templates_dir.
func (s *Server) templateFolder(requested string) (string, error) {
	if s.config.TemplatesDir == "" {
		return "", docforge.NewValidationError("folder", "template scanning is disabled: templates_dir is not configured")
	}
	root, err := filepath.Abs(s.config.TemplatesDir)
	if err != nil {
		return "", err
	}
	root = resolveLinks(root)

	folder := strings.TrimSpace(requested)
	if !filepath.IsAbs(folder) {
		folder = filepath.Join(root, folder)
	}
	folder = resolveLinks(filepath.Clean(folder))

	rel, err := filepath.Rel(root, folder)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", docforge.NewValidationError("folder", "folder must be inside templates_dir")
	}
	return folder, nil
}

// resolveLinks follows symlinks in path when it exists.
func resolveLinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

func (s *Server) handleTemplatePreview(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	t, ok := s.Catalog().Lookup(name)
	if !ok {
		s.fail(w, r, docforge.NewNotFoundError("cover template", name))
		return
	}
	http.ServeFile(w, r, t.ImagePath)
}
