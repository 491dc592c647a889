//nolint:whitespace // can't make both editor and linter happy
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/track-dominance/log"
	"github.com/mpapenbr/track-dominance/pkg/dominance"
	"github.com/mpapenbr/track-dominance/pkg/model"
	"github.com/mpapenbr/track-dominance/pkg/openf1"
	"github.com/mpapenbr/track-dominance/pkg/render"
	"github.com/mpapenbr/track-dominance/pkg/repository"
	runrepos "github.com/mpapenbr/track-dominance/pkg/repository/dominance"
	"github.com/mpapenbr/track-dominance/version"
)

const (
	defaultBinWidth = 10.0
	// accepted range of the bin parameter in meters
	minBinWidth = 1.0
	maxBinWidth = 1000.0
)

// errBadRequest marks errors caused by invalid request parameters
var errBadRequest = errors.New("bad request")

type (
	errorResponse struct {
		Error string `json:"error"`
		Kind  string `json:"kind,omitempty"`
	}
	cacheStats struct {
		Hits     int64   `json:"hits"`
		Misses   int64   `json:"misses"`
		Writes   int64   `json:"writes"`
		HitRatio float64 `json:"hitRatio"`
	}
	healthResponse struct {
		Status  string      `json:"status"`
		Version string      `json:"version"`
		Runs    int         `json:"cachedRuns"`
		Cache   *cacheStats `json:"cache,omitempty"`
	}
)

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		Version: version.FullVersion,
		Runs:    s.runs.Len(),
	}
	if s.stats != nil {
		st := s.stats.Stats()
		resp.Cache = &cacheStats{
			Hits:     st.Hits,
			Misses:   st.Misses,
			Writes:   st.Writes,
			HitRatio: st.HitRatio(),
		}
	}
	s.writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) meetings(w http.ResponseWriter, r *http.Request) {
	if s.schedule == nil {
		s.writeError(w, r, errors.ErrUnsupported)
		return
	}
	year, err := intParam(r, "year", true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	meetings, err := s.schedule.Meetings(r.Context(), year)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, meetings)
}

func (s *Server) sessions(w http.ResponseWriter, r *http.Request) {
	if s.schedule == nil {
		s.writeError(w, r, errors.ErrUnsupported)
		return
	}
	meeting, err := intParam(r, "meeting", true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sessions, err := s.schedule.Sessions(r.Context(), meeting)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, sessions)
}

func (s *Server) dominanceJSON(w http.ResponseWriter, r *http.Request) {
	res, err := s.result(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) dominanceHTML(w http.ResponseWriter, r *http.Request) {
	res, err := s.result(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var opts []render.HTMLOption
	if s.assetsHost != "" {
		opts = append(opts, render.WithAssetsHost(s.assetsHost))
	}
	buf := bytes.Buffer{}
	if err := render.DominanceHTML(&buf, res, opts...); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) dominancePNG(w http.ResponseWriter, r *http.Request) {
	res, err := s.result(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	buf := bytes.Buffer{}
	if err := render.DominancePNG(&buf, res); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", render.DominanceFilename(res, "png")))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) runsBySession(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, errors.ErrUnsupported)
		return
	}
	session, err := intParam(r, "session", true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	runs, err := runrepos.LoadBySession(r.Context(), s.db, session)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []*model.DominanceRun{}
	}
	s.writeJSON(w, r, http.StatusOK, runs)
}

func (s *Server) runByID(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, errors.ErrUnsupported)
		return
	}
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("id: %w", errBadRequest))
		return
	}
	run, err := runrepos.LoadByID(r.Context(), s.db, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, run)
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.writeError(w, r, errors.ErrUnsupported)
		return
	}
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("id: %w", errBadRequest))
		return
	}
	n, err := runrepos.DeleteByID(r.Context(), s.db, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if n == 0 {
		s.writeError(w, r, repository.ErrNoData)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// result returns the (cached) dominance result for the session and bin
// parameters of the request
func (s *Server) result(r *http.Request) (*model.Result, error) {
	if s.dominance == nil {
		return nil, errors.ErrUnsupported
	}
	session, err := intParam(r, "session", true)
	if err != nil {
		return nil, err
	}
	bin := defaultBinWidth
	if v := r.URL.Query().Get("bin"); v != "" {
		bin, err = strconv.ParseFloat(v, 64)
		if err != nil || !(bin >= minBinWidth && bin <= maxBinWidth) {
			return nil, fmt.Errorf("bin must be between %g and %g: %w",
				minBinWidth, maxBinWidth, errBadRequest)
		}
	}
	return s.runs.Get(r.Context(), runKey{session: session, binWidth: bin})
}

func storeRun(ctx context.Context, db repository.Querier, session int, res *model.Result) (
	*model.DominanceRun, error,
) {
	return runrepos.Create(ctx, db, model.NewDominanceRun(session, res))
}

func intParam(r *http.Request, name string, required bool) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		if required {
			return 0, fmt.Errorf("missing parameter %s: %w", name, errBadRequest)
		}
		return 0, nil
	}
	ret, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", name, errBadRequest)
	}
	return ret, nil
}

func statusFor(err error) (int, string) {
	var domErr *dominance.Error
	var httpErr *openf1.HTTPError
	switch {
	case errors.As(err, &domErr):
		return http.StatusUnprocessableEntity, domErr.Kind.String()
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, ""
	case errors.Is(err, openf1.ErrNotFound), errors.Is(err, repository.ErrNoData):
		return http.StatusNotFound, ""
	case errors.Is(err, errors.ErrUnsupported):
		return http.StatusNotImplemented, ""
	case errors.As(err, &httpErr):
		return http.StatusBadGateway, ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, ""
	default:
		return http.StatusInternalServerError, ""
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := statusFor(err)
	l := log.GetFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		l.Error("request failed", log.String("path", r.URL.Path), log.ErrorField(err))
	} else {
		l.Debug("request rejected", log.Int("status", status), log.ErrorField(err))
	}
	s.writeJSON(w, r, status, errorResponse{Error: err.Error(), Kind: kind})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.GetFromContext(r.Context()).Error("marshal response", log.ErrorField(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
