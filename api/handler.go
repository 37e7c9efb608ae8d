package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"flat-scraper/models"
	"flat-scraper/scraper/cian"
	"flat-scraper/storage"
	"flat-scraper/utils"

	"github.com/gorilla/mux"
)

// Parser ingests one search page.
type Parser interface {
	ParseURL(ctx context.Context, rawURL string) (models.ParseResult, error)
}

type Handler struct {
	Parser Parser
	Store  storage.Store
}

func NewHandler(parser Parser, store storage.Store) *Handler {
	return &Handler{Parser: parser, Store: store}
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/parse", h.Parse).Methods(http.MethodGet)
	r.HandleFunc("/get", h.GetListings).Methods(http.MethodGet)
	r.HandleFunc("/add_url", h.AddURL).Methods(http.MethodPost)
	r.HandleFunc("/add_url/", h.AddURL).Methods(http.MethodPost)
	r.HandleFunc("/get_urls", h.GetURLs).Methods(http.MethodGet)
	r.HandleFunc("/get_urls/", h.GetURLs).Methods(http.MethodGet)
}

// the target URL usually carries its own unescaped query string, so take
// everything after url= instead of parsing the query. The name must start a
// parameter so redirect_url= and friends do not match.
var urlParam = regexp.MustCompile(`(?:^|&)url=(.*)`)

// GET /parse?url=...
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	match := urlParam.FindStringSubmatch(r.URL.RawQuery)
	if match == nil || match[1] == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	target, err := url.PathUnescape(match[1])
	if err != nil {
		writeError(w, http.StatusBadRequest, "url is not properly encoded")
		return
	}
	utils.Info("Received URL: %s", target)

	result, err := h.Parser.ParseURL(r.Context(), target)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, cian.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, cian.ErrRenderTimeout):
		utils.Warn("Parse timed out: %v", err)
		writeError(w, http.StatusRequestTimeout, "page load timeout")
	default:
		utils.Error("Parse failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// GET /get
func (h *Handler) GetListings(w http.ResponseWriter, r *http.Request) {
	listings, err := h.Store.ListListings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if listings == nil {
		listings = []models.PersistedListing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

// POST /add_url?url=...
func (h *Handler) AddURL(w http.ResponseWriter, r *http.Request) {
	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	added, err := h.Store.AddTrackedURL(r.Context(), target)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := "exists"
	if added {
		status = "added"
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status, "url": target})
}

// GET /get_urls
func (h *Handler) GetURLs(w http.ResponseWriter, r *http.Request) {
	urls, err := h.Store.ListTrackedURLs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if urls == nil {
		urls = []models.TrackedURL{}
	}
	writeJSON(w, http.StatusOK, urls)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Error("Could not write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
