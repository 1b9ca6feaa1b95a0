package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nornoe/skyavatar/pkg/archive"
	"github.com/nornoe/skyavatar/pkg/avatar"
	"github.com/nornoe/skyavatar/pkg/buildinfo"
	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/pipeline"
	"github.com/nornoe/skyavatar/pkg/render/overlay"
)

type errorDetail struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type rateLimitedBody struct {
	Error            errorDetail `json:"error"`
	SecondsRemaining int         `json:"secondsRemaining"`
}

type archiveBody struct {
	Data    *archive.Page `json:"data"`
	Success bool          `json:"success"`
}

type optionsBody struct {
	Backgrounds []string `json:"backgrounds"`
	Shapes      []string `json:"shapes"`
	Eyes        []string `json:"eyes"`
	Mouths      []string `json:"mouths"`
}

type helloBody struct {
	Message string `json:"message"`
	Version string `json:"version"`
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	params, err := decodeParams(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Execute(r.Context(), pipeline.Options{Params: params})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Archive-Uri", result.Record.URI)
	writePNG(w, result.PNG, result.CacheInfo.RenderHit)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	size := 0
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid size %q", v))
			return
		}
		size = n
	}

	params, err := decodeParams(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result, err := s.runner.Render(r.Context(), pipeline.Options{Params: params, Size: size})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writePNG(w, result.PNG, result.CacheInfo.RenderHit)
}

func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if s.browser == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnauthorized, "no account configured"))
		return
	}

	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}

	page, err := s.browser.List(r.Context(), limit, q.Get("cursor"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, archiveBody{Data: page, Success: true})
}

func (s *Server) handleOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, optionsBody{
		Backgrounds: avatar.Backgrounds,
		Shapes:      avatar.ShapeNames(),
		Eyes:        s.assets.Names(overlay.Eyes),
		Mouths:      s.assets.Names(overlay.Mouth),
	})
}

func (s *Server) handleHello(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, helloBody{Message: "Hello from skyavatar", Version: buildinfo.Version})
}

// decodeParams reads avatar parameters from a JSON body. Unknown fields are
// rejected so typos surface as 400s instead of default values.
func decodeParams(w http.ResponseWriter, r *http.Request) (avatar.Params, error) {
	var p avatar.Params
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return p, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return p, nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	detail := errorDetail{Code: errors.GetCode(err), Message: errors.UserMessage(err)}
	if detail.Code == "" {
		detail.Code = errors.ErrCodeInternal
	}

	if secs, ok := errors.RetryAfterSeconds(err); ok {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
		writeJSON(w, status, rateLimitedBody{Error: detail, SecondsRemaining: secs})
		return
	}

	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "err", err,
			"id", RequestIDFromContext(r.Context()))
		if detail.Code == errors.ErrCodeInternal {
			detail.Message = "internal error"
		}
	}
	writeJSON(w, status, errorBody{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, data []byte, cacheHit bool) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Cache", cacheStatus(cacheHit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
