package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/treecover-lookup-service/internal/domain"
	"github.com/couchcryptid/treecover-lookup-service/internal/lookup"
	"github.com/couchcryptid/treecover-lookup-service/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type provincesResponse struct {
	State     lookup.State           `json:"state"`
	Provinces []domain.ProvinceEntry `json:"provinces"`
}

type districtsResponse struct {
	Province  string                 `json:"province"`
	Districts []domain.DistrictEntry `json:"districts"`
}

type selectionRequest struct {
	Province string `json:"province"`
	District string `json:"district"`
}

type selectionResponse struct {
	Selection domain.Selection `json:"selection"`
	Result    lookup.Result    `json:"result"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.svc.Status())
}

func (s *Server) handleProvinces(w http.ResponseWriter, _ *http.Request) {
	provinces := s.svc.Provinces()
	if provinces == nil {
		provinces = []domain.ProvinceEntry{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, provincesResponse{State: s.svc.Status().State, Provinces: provinces})
}

func (s *Server) handleDistricts(w http.ResponseWriter, r *http.Request) {
	province, err := url.PathUnescape(chi.URLParam(r, "province"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid province")
		return
	}
	if s.svc.Status().State != lookup.StateReady {
		writeError(w, http.StatusServiceUnavailable, "dataset not loaded")
		return
	}

	key := domain.Normalize(province)
	if !slices.ContainsFunc(s.svc.Provinces(), func(p domain.ProvinceEntry) bool { return p.Key == key }) {
		writeError(w, http.StatusNotFound, "unknown province")
		return
	}
	districts := s.svc.Districts(key)
	if districts == nil {
		districts = []domain.DistrictEntry{}
	}
	sharedobs.WriteJSON(w, http.StatusOK, districtsResponse{Province: key, Districts: districts})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.svc.Selection())
}

func (s *Server) handlePutSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid selection body")
		return
	}

	sel, res := s.svc.SelectAndResolve(req.Province, req.District)
	sharedobs.WriteJSON(w, http.StatusOK, selectionResponse{Selection: sel, Result: res})
}

func (s *Server) handleResult(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, s.svc.Result())
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	province, district := strings.TrimSpace(q.Get("province")), strings.TrimSpace(q.Get("district"))
	if province == "" || district == "" {
		writeError(w, http.StatusBadRequest, "province and district are required")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.svc.Lookup(province, district))
}

func (s *Server) handleReload(w http.ResponseWriter, _ *http.Request) {
	if !s.reloader.Request(pipeline.TriggerAPI) {
		sharedobs.WriteJSON(w, http.StatusTooManyRequests, map[string]string{"status": "throttled"})
		return
	}
	sharedobs.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
