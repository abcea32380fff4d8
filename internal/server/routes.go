package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/kgmem/internal/engine"
	"github.com/lazypower/kgmem/internal/store"
)

func (s *Server) handleCreateNode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type       string   `json:"type"`
		Label      string   `json:"label"`
		Content    string   `json:"content"`
		Confidence *float64 `json:"confidence"`
		Tags       []string `json:"tags"`
		SourceIDs  []string `json:"source_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	node, err := s.eng.AddNode(engine.NodeInput{
		Type:       req.Type,
		Label:      req.Label,
		Content:    req.Content,
		Confidence: req.Confidence,
		Tags:       req.Tags,
		SourceIDs:  req.SourceIDs,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": node.ID, "status": "created"})
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	node, err := s.eng.GetNode(chi.URLParam(r, "nodeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.eng.DeleteNode(chi.URLParam(r, "nodeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "node not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleTouchNode(w http.ResponseWriter, r *http.Request) {
	node, err := s.eng.Touch(chi.URLParam(r, "nodeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

func (s *Server) handleCreateEdge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Source           string   `json:"source"`
		Target           string   `json:"target"`
		Type             string   `json:"type"`
		Weight           *float64 `json:"weight"`
		ContextIDs       []string `json:"context_ids"`
		ResolutionStatus *string  `json:"resolution_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	edge, err := s.eng.AddEdge(engine.EdgeInput{
		Source:           req.Source,
		Target:           req.Target,
		Type:             req.Type,
		Weight:           req.Weight,
		ContextIDs:       req.ContextIDs,
		ResolutionStatus: req.ResolutionStatus,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": edge.ID, "status": "created"})
}

func (s *Server) handleGetEdge(w http.ResponseWriter, r *http.Request) {
	edge, err := s.eng.GetEdge(chi.URLParam(r, "edgeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, edge)
}

func (s *Server) handleDeleteEdge(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.eng.DeleteEdge(chi.URLParam(r, "edgeID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !deleted {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "edge not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleReinforceEdge(w http.ResponseWriter, r *http.Request) {
	boost := 0.1
	if b := r.URL.Query().Get("boost"); b != "" {
		parsed, err := strconv.ParseFloat(b, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "boost must be a number"})
			return
		}
		boost = parsed
	}

	edge, err := s.eng.Reinforce(chi.URLParam(r, "edgeID"), boost)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, edge)
}

func (s *Server) handleNeighbors(w http.ResponseWriter, r *http.Request) {
	neighbors, err := s.eng.Neighbors(chi.URLParam(r, "nodeID"), r.URL.Query().Get("edge_type"))
	if err != nil {
		writeError(w, err)
		return
	}
	if neighbors == nil {
		neighbors = []store.Neighbor{}
	}
	writeJSON(w, http.StatusOK, neighbors)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	results, err := s.eng.Search(r.URL.Query().Get("q"), r.URL.Query().Get("type"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []store.Node{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleContradictions(w http.ResponseWriter, r *http.Request) {
	contradictions, err := s.eng.Contradictions(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	if contradictions == nil {
		contradictions = []store.Contradiction{}
	}
	writeJSON(w, http.StatusOK, contradictions)
}

func (s *Server) handleDream(w http.ResponseWriter, r *http.Request) {
	cfg := engine.DefaultDreamConfig()
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
			return
		}
	}

	report, err := s.eng.Dream(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.eng.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
