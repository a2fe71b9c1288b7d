package server

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/brickgrid/pkg/buildinfo"
	"github.com/matzehuels/brickgrid/pkg/datasource"
	"github.com/matzehuels/brickgrid/pkg/errors"
	"github.com/matzehuels/brickgrid/pkg/grid"
	pageio "github.com/matzehuels/brickgrid/pkg/io"
	"github.com/matzehuels/brickgrid/pkg/materialize"
	"github.com/matzehuels/brickgrid/pkg/page"
	"github.com/matzehuels/brickgrid/pkg/store"
)

const (
	// maxBody caps request bodies.
	maxBody = 4 << 20

	// appendIndex places a brick after its last sibling.
	appendIndex = math.MaxInt
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	st, err := s.open(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Layout-Version", itoa(st.Version()))
	if err := pageio.WritePage(st.Page(), w); err != nil {
		s.logger.Warn("write page", "err", err)
	}
}

func (s *Server) handlePutPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "page")
	p, err := pageio.ReadPage(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if p.ID != id {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "document id %q does not match %q", p.ID, id))
		return
	}
	rec, err := s.replace(r.Context(), p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": rec.Page.ID, "version": rec.Version, "updatedAt": rec.UpdatedAt})
}

type renderResponse struct {
	Page       string                         `json:"page"`
	Breakpoint grid.Breakpoint                `json:"breakpoint"`
	Version    uint64                         `json:"version"`
	Items      []materialize.Item             `json:"items"`
	Sources    map[string]datasource.Snapshot `json:"sources"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	bp, err := breakpointParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	st, err := s.open(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	version := st.Version()
	x, err := materialize.ExpandPage(r.Context(), st.Page(), s.sources, s.memo)
	if err != nil {
		s.writeError(w, err)
		return
	}
	items, err := x.RenderList(bp)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for ref, snap := range x.Snapshots {
		snap.Rows = nil
		x.Snapshots[ref] = snap
	}
	writeJSON(w, http.StatusOK, renderResponse{
		Page:       x.Page.ID,
		Breakpoint: bp,
		Version:    version,
		Items:      items,
		Sources:    x.Snapshots,
	})
}

func (s *Server) handleCollisions(w http.ResponseWriter, r *http.Request) {
	bp, err := breakpointParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	st, err := s.open(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var found []page.Collision
	if parent := r.URL.Query().Get("parent"); parent != "" {
		found, err = st.Collisions(parent, bp)
		if err != nil {
			s.writeError(w, err)
			return
		}
	} else {
		found = st.Page().PageCollisions(bp)
	}
	if found == nil {
		found = []page.Collision{}
	}
	writeJSON(w, http.StatusOK, found)
}

type positionRequest struct {
	Breakpoint grid.Breakpoint `json:"bp"`
	Element    grid.PixelRect  `json:"element"`
	Container  grid.PixelRect  `json:"container"`
	PaddingX   float64         `json:"paddingX"`
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var req positionRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.open(r.Context(), chi.URLParam(r, "page")); err != nil {
		s.writeError(w, err)
		return
	}
	rect, err := grid.GetBrickPosition(req.Element, req.Breakpoint, req.Container, req.PaddingX)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rect)
}

type insertRequest struct {
	Brick    *page.Brick `json:"brick"`
	ParentID string      `json:"parentId"`
	Index    *int        `json:"index"`
}

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	var req insertRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := s.open(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	index := appendIndex
	if req.Index != nil {
		index = *req.Index
	}
	id, err := st.Insert(req.Brick, req.ParentID, index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "version": st.Version()})
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	st, err := s.open(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := st.Remove(chi.URLParam(r, "brick")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveRequest struct {
	Breakpoint grid.Breakpoint `json:"bp"`
	To         grid.Point      `json:"to"`

	// Group moves further siblings by the same offset as the brick.
	Group []string `json:"group,omitempty"`
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := s.open(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := chi.URLParam(r, "brick")
	moves, err := groupMoves(st, id, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := st.MoveBricks(moves, req.Breakpoint); err != nil {
		s.writeError(w, err)
		return
	}
	s.writePosition(w, st, id, req.Breakpoint)
}

// groupMoves translates every group member by the lead brick's offset.
func groupMoves(st *store.Store, id string, req moveRequest) ([]store.Move, error) {
	moves := []store.Move{{ID: id, To: req.To}}
	if len(req.Group) == 0 {
		return moves, nil
	}
	if !req.Breakpoint.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidBreakpoint, "unknown breakpoint %q", req.Breakpoint)
	}
	lead, err := st.Position(id, req.Breakpoint)
	if err != nil {
		return nil, err
	}
	dx, dy := req.To.X-lead.X, req.To.Y-lead.Y
	for _, m := range req.Group {
		if m == id {
			continue
		}
		pos, err := st.Position(m, req.Breakpoint)
		if err != nil {
			return nil, err
		}
		moves = append(moves, store.Move{ID: m, To: grid.Point{X: pos.X + dx, Y: pos.Y + dy}})
	}
	return moves, nil
}

type resizeRequest struct {
	Breakpoint   grid.Breakpoint `json:"bp"`
	Size         grid.Size       `json:"size"`
	Origin       *grid.Point     `json:"origin,omitempty"`
	ManualHeight float64         `json:"manualHeight,omitempty"`
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := s.open(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	var opts []store.ResizeOption
	if req.Origin != nil {
		opts = append(opts, store.WithOrigin(*req.Origin))
	}
	if req.ManualHeight > 0 {
		opts = append(opts, store.WithManualHeight(req.ManualHeight))
	}
	pos, err := st.ResizeBrick(chi.URLParam(r, "brick"), req.Size, req.Breakpoint, opts...)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

type reparentRequest struct {
	ParentID string `json:"parentId"`
	Index    *int   `json:"index"`
}

func (s *Server) handleReparent(w http.ResponseWriter, r *http.Request) {
	var req reparentRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	st, err := s.open(r.Context(), chi.URLParam(r, "page"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	id := chi.URLParam(r, "brick")
	index := appendIndex
	if req.Index != nil {
		index = *req.Index
	}
	if err := st.Reparent(id, req.ParentID, index); err != nil {
		s.writeError(w, err)
		return
	}
	parent, section, err := st.Parent(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"parentId": parent, "section": section})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	rows, err := datasource.DecodeRows(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := s.sources.Publish(r.Context(), chi.URLParam(r, "ref"), rows)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ref":       snap.Ref,
		"version":   snap.Version,
		"rows":      snap.Len(),
		"updatedAt": snap.UpdatedAt,
	})
}

func (s *Server) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	if err := s.sources.Unpublish(r.Context(), chi.URLParam(r, "ref")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writePosition(w http.ResponseWriter, st *store.Store, id string, bp grid.Breakpoint) {
	pos, err := st.Position(id, bp)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pos)
}

func breakpointParam(r *http.Request) (grid.Breakpoint, error) {
	v := r.URL.Query().Get("bp")
	if v == "" {
		return grid.Desktop, nil
	}
	return grid.ParseBreakpoint(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
