package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/impacthands/internal/common"
	"github.com/dmitrijs2005/impacthands/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type putObjectResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func checkBucket(w http.ResponseWriter, r *http.Request) bool {
	if chi.URLParam(r, "bucket") != common.AvatarBucket {
		writeError(w, common.WithMessage(common.ErrorNotFound, "Bucket not found"))
		return false
	}
	return true
}

func (s *Server) handlePutObject(w http.ResponseWriter, r *http.Request) {
	if !checkBucket(w, r) {
		return
	}
	claims, _ := ClaimsFrom(r.Context())
	key := chi.URLParam(r, "*")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, services.MaxAvatarSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{
				Error:   "payload_too_large",
				Message: "The object exceeded the maximum allowed size",
			})
			return
		}
		badRequest(w, "unable to read body")
		return
	}

	upsert, _ := strconv.ParseBool(r.Header.Get(common.UpsertHeaderName))
	if err := s.storage.Upload(r.Context(), claims.UserID(), key, data, r.Header.Get("Content-Type"), upsert); err != nil {
		s.log.Warn(r.Context(), "upload failed", "user_id", claims.UserID(), "key", key, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, putObjectResponse{
		Key: common.AvatarBucket + "/" + key,
		URL: s.publicBaseURL + "/storage/v1/object/public/" + common.AvatarBucket + "/" + key,
	})
}

func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request) {
	if !checkBucket(w, r) {
		return
	}
	obj, err := s.storage.Open(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer obj.Body.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.Header().Set("Cache-Control", "max-age=3600")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		s.log.Warn(r.Context(), "stream object", "error", err)
	}
}
