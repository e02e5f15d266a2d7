package httpserver

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andes-cine/bookings-api/internal/domain"
	"github.com/andes-cine/bookings-api/internal/events"
	"github.com/andes-cine/bookings-api/internal/repository"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Error string `json:"error"`
}

type conflictResponse struct {
	Error  string            `json:"error"`
	Detail string            `json:"detail"`
	Key    map[string]string `json:"key"`
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	query := buildListQuery(r.URL.Query())

	result, err := s.repo.List(r.Context(), query)
	if err != nil {
		s.logger.Printf("list bookings error: %v", err)
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if flatRequested(r.URL.Query()) {
		s.respondJSON(w, http.StatusOK, result.Data)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeBody(w, r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	// Callers may supply the identity as either id or _id.
	if _, ok := payload["_id"]; !ok {
		if v, ok := payload["id"]; ok {
			payload["_id"] = v
		}
	}

	doc := domain.PickCreatable(payload)
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = newID()
	}
	doc, err = domain.NormalizeCreate(doc, time.Now())
	if err != nil {
		s.respondModelError(w, err, "")
		return
	}
	id, _ := doc["_id"].(string)

	if err := s.repo.Bookings.Insert(r.Context(), doc); err != nil {
		s.respondModelError(w, err, id)
		return
	}
	s.refreshProjection(r, id)
	s.events.Publish(r.Context(), events.BookingCreated, doc)
	s.respondJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.repo.Bookings.GetByID(r.Context(), id)
	if err != nil {
		s.respondModelError(w, err, id)
		return
	}
	s.respondJSON(w, http.StatusOK, doc)
}

// handleUpdateBooking serves both PUT and PATCH: each applies the mutable
// subset of the payload as a partial update and returns the post-update
// state.
func (s *Server) handleUpdateBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	payload, err := decodeBody(w, r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := domain.EnsureNoImmutable(payload); err != nil {
		s.respondModelError(w, err, id)
		return
	}
	set, err := domain.NormalizeUpdate(domain.PickMutable(payload))
	if err != nil {
		s.respondModelError(w, err, id)
		return
	}
	if len(set) == 0 {
		s.respondModelError(w, domain.ErrNoUpdatableFields, id)
		return
	}

	doc, err := s.repo.Bookings.Update(r.Context(), id, set)
	if err != nil {
		s.respondModelError(w, err, id)
		return
	}
	s.refreshProjection(r, id)
	s.events.Publish(r.Context(), events.BookingUpdated, doc)
	s.respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteBooking(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := s.repo.Bookings.Delete(r.Context(), id)
	if err != nil {
		s.respondModelError(w, err, id)
		return
	}
	if !deleted {
		s.respondError(w, http.StatusNotFound, "Not found")
		return
	}
	if s.repo.MaterializationAvailable() {
		if err := s.repo.Materialized.Delete(r.Context(), id); err != nil {
			s.logger.Printf("projection delete %s: %v", id, err)
		}
	}
	s.events.Publish(r.Context(), events.BookingDeleted, map[string]string{"_id": id})
	w.WriteHeader(http.StatusNoContent)
}

// refreshProjection synchronously re-derives one materialized record after a
// write. The primary record is the source of truth, so a refresh failure is
// logged and the write still succeeds; the entry self-heals on the next
// refresh.
func (s *Server) refreshProjection(r *http.Request, id string) {
	if !s.repo.MaterializationAvailable() {
		return
	}
	if err := s.repo.Materialized.RefreshOne(r.Context(), id); err != nil {
		s.logger.Printf("projection refresh %s: %v", id, err)
	}
}

// buildListQuery translates the flat query-parameter map into a structured
// filter, sort key, and page window. Total: malformed values fall back to
// defaults or contribute no filter, never an error.
func buildListQuery(values url.Values) repository.ListQuery {
	q := repository.ListQuery{
		Limit: repository.DefaultLimit,
		Page:  1,
		Sort:  repository.DefaultSort,
	}

	q.ID = firstParam(values, "id", "_id", "booking_id")
	q.MovieID = firstParam(values, "movie_id")
	q.CinemaID = firstParam(values, "cinema_id")
	q.ShowtimeID = firstParam(values, "showtime_id")
	q.UserID = firstParam(values, "user_id")
	q.Status = firstParam(values, "status")
	q.Source = firstParam(values, "source")
	q.PaymentMethod = firstParam(values, "payment_method")
	q.Email = firstParam(values, "email")

	// Invalid date strings contribute no filter.
	if v, ok := cleanParam(values.Get("date_from")); ok {
		if ts, parsed := domain.ParseTime(v); parsed {
			q.DateFrom = &ts
		}
	}
	if v, ok := cleanParam(values.Get("date_to")); ok {
		if ts, parsed := domain.ParseTime(v); parsed {
			q.DateTo = &ts
		}
	}

	if v, ok := cleanParam(values.Get("sort")); ok {
		field, desc := v, false
		if strings.HasPrefix(field, "-") {
			field, desc = field[1:], true
		}
		if repository.SortableField(field) {
			q.Sort = repository.SortKey{Field: field, Desc: desc}
		}
	}

	if v, ok := cleanParam(values.Get("limit")); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			if n > repository.MaxLimit {
				n = repository.MaxLimit
			}
			q.Limit = n
		}
	}
	if v, ok := cleanParam(values.Get("page")); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			q.Page = n
		}
	}

	return q
}

func flatRequested(values url.Values) bool {
	v, ok := cleanParam(values.Get("flat"))
	if !ok {
		return false
	}
	flat, err := strconv.ParseBool(v)
	return err == nil && flat
}

// cleanParam trims a raw query value and treats "", "null" and "undefined"
// (client-side stringification artifacts) as absent.
func cleanParam(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	switch strings.ToLower(v) {
	case "null", "undefined":
		return "", false
	}
	return v, true
}

func firstParam(values url.Values, keys ...string) *string {
	for _, k := range keys {
		if v, ok := cleanParam(values.Get(k)); ok {
			return &v
		}
	}
	return nil
}

func decodeBody(w http.ResponseWriter, r *http.Request) (domain.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()

	var doc domain.Document
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Document{}, nil
		}
		return nil, err
	}
	return doc, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, errorResponse{Error: message})
}

// respondModelError maps the error taxonomy onto status codes: validation →
// 400, missing identity → 404, duplicate identity → 409. Anything else is
// downgraded to 400.
func (s *Server) respondModelError(w http.ResponseWriter, err error, id string) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		s.respondError(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, repository.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, repository.ErrConflict):
		s.respondJSON(w, http.StatusConflict, conflictResponse{
			Error:  "conflict",
			Detail: "duplicate key",
			Key:    map[string]string{"_id": id},
		})
	default:
		s.logger.Printf("booking handler error: %v", err)
		s.respondError(w, http.StatusBadRequest, err.Error())
	}
}

// newID mints a random identity for creates that omit one.
func newID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
