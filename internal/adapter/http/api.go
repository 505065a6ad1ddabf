package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/couchcryptid/hazard-target-service/internal/domain"
	"github.com/couchcryptid/hazard-target-service/internal/query"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxBodyBytes = 10 << 20

// TargetResolver runs target resolution passes. *pipeline.Pipeline
// implements it.
type TargetResolver interface {
	Resolve(ctx context.Context, mode domain.HazardMode, minSeverity domain.Severity) (domain.TargetList, error)
	ResolveFeatures(ctx context.Context, mode string, features []*domain.HazardFeature, minSeverity domain.Severity) domain.TargetList
	Latest(mode string) (domain.TargetList, bool)
}

type api struct {
	targets TargetResolver
	logger  *slog.Logger
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/modes", a.handleModes)
	mux.HandleFunc("GET /api/fields", a.handleFields)
	mux.HandleFunc("GET /api/targets", a.handleResolve)
	mux.HandleFunc("GET /api/targets/latest", a.handleLatest)
	mux.HandleFunc("POST /api/targets", a.handleResolvePosted)
	mux.HandleFunc("POST /api/targets/sql", a.handleTargetSQL)
	mux.HandleFunc("POST /api/sql", a.handleSQL)
}

// sqlRequest is the body of POST /api/sql.
type sqlRequest struct {
	Config     query.Config `json:"config"`
	Zips       []string     `json:"zips"`
	NAICSCodes []string     `json:"naics_codes"`
	CountOnly  bool         `json:"count_only"`
}

// targetSQLRequest is the body of POST /api/targets/sql. Features, when set,
// is a GeoJSON FeatureCollection used instead of the alert feed.
type targetSQLRequest struct {
	Config     query.Config    `json:"config"`
	NAICSCodes []string        `json:"naics_codes"`
	CountOnly  bool            `json:"count_only"`
	Features   json.RawMessage `json:"features,omitempty"`
}

type modeView struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	FeedBacked bool     `json:"feed_backed"`
	Events     []string `json:"events,omitempty"`
}

func (a *api) handleModes(w http.ResponseWriter, _ *http.Request) {
	modes := domain.Modes()
	out := make([]modeView, len(modes))
	for i, m := range modes {
		out[i] = modeView{Name: m.Name, Label: m.Label, FeedBacked: m.FeedBacked(), Events: m.Events}
	}
	sharedobs.WriteJSON(w, http.StatusOK, out)
}

func (a *api) handleFields(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, query.Fields())
}

func (a *api) handleResolve(w http.ResponseWriter, r *http.Request) {
	mode, minSeverity, ok := parseTargetParams(w, r)
	if !ok {
		return
	}
	if !mode.FeedBacked() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("mode %q has no alert feed; POST its features instead", mode.Name))
		return
	}

	list, err := a.targets.Resolve(r.Context(), mode, minSeverity)
	if err != nil {
		a.logger.Error("resolve targets failed", "mode", mode.Name, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, list)
}

func (a *api) handleLatest(w http.ResponseWriter, r *http.Request) {
	mode, _, ok := parseTargetParams(w, r)
	if !ok {
		return
	}
	list, found := a.targets.Latest(mode.Name)
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no refreshed target list for mode %q", mode.Name))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, list)
}

func (a *api) handleResolvePosted(w http.ResponseWriter, r *http.Request) {
	mode, minSeverity, ok := parseTargetParams(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	features, err := domain.ParseFeatureCollection(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sharedobs.WriteJSON(w, http.StatusOK, a.targets.ResolveFeatures(r.Context(), mode.Name, features, minSeverity))
}

func (a *api) handleSQL(w http.ResponseWriter, r *http.Request) {
	var req sqlRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeSQL(w, query.Generate(req.Config, req.Zips, naicsCodes(req.Config, req.NAICSCodes), req.CountOnly))
}

// handleTargetSQL resolves targets and renders the SQL template for them in
// one call.
func (a *api) handleTargetSQL(w http.ResponseWriter, r *http.Request) {
	mode, minSeverity, ok := parseTargetParams(w, r)
	if !ok {
		return
	}
	var req targetSQLRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var list domain.TargetList
	switch {
	case len(req.Features) > 0 && string(req.Features) != "null":
		features, err := domain.ParseFeatureCollection(req.Features)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		list = a.targets.ResolveFeatures(r.Context(), mode.Name, features, minSeverity)
	case mode.FeedBacked():
		var err error
		list, err = a.targets.Resolve(r.Context(), mode, minSeverity)
		if err != nil {
			a.logger.Error("resolve targets failed", "mode", mode.Name, "error", err)
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("mode %q has no alert feed; include features", mode.Name))
		return
	}

	writeSQL(w, query.Generate(req.Config, list.Zips(), naicsCodes(req.Config, req.NAICSCodes), req.CountOnly))
}

// parseTargetParams reads ?mode= and ?min_severity=, writing a 400 on
// failure.
func parseTargetParams(w http.ResponseWriter, r *http.Request) (domain.HazardMode, domain.Severity, bool) {
	q := r.URL.Query()
	name := q.Get("mode")
	if name == "" {
		writeError(w, http.StatusBadRequest, "mode is required")
		return domain.HazardMode{}, 0, false
	}
	mode, ok := domain.LookupMode(name)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown mode %q", name))
		return domain.HazardMode{}, 0, false
	}

	minSeverity := domain.SeverityUnknown
	if s := q.Get("min_severity"); s != "" {
		minSeverity = domain.ParseSeverity(s)
		if minSeverity == domain.SeverityUnknown && !strings.EqualFold(s, "unknown") {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown severity %q", s))
			return domain.HazardMode{}, 0, false
		}
	}
	return mode, minSeverity, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "decode request: "+err.Error())
		return false
	}
	return true
}

// naicsCodes merges the codes carried in the config with those sent
// alongside it.
func naicsCodes(cfg query.Config, extra []string) []string {
	if len(extra) == 0 {
		return cfg.NAICSCodes
	}
	return append(append([]string(nil), cfg.NAICSCodes...), extra...)
}

func writeSQL(w http.ResponseWriter, sql string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, sql) //nolint:errcheck // best-effort response
}
