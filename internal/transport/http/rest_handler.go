package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"codequiz-session-service/internal/app"
	"codequiz-session-service/internal/domain"
	"github.com/gorilla/mux"
)

// HistoryReader is the read side of the history store, used by the
// history endpoint.
type HistoryReader interface {
	RecentAttempts(ctx context.Context, userID string, n int) ([]domain.Attempt, error)
}

// RESTHandler exposes the read-only category/question/history surface.
type RESTHandler struct {
	categories app.CategoryRepository
	questions  app.QuestionRepository
	history    HistoryReader
}

func NewRESTHandler(categories app.CategoryRepository, questions app.QuestionRepository, history HistoryReader) *RESTHandler {
	return &RESTHandler{categories: categories, questions: questions, history: history}
}

// NewRouter wires the REST surface and the websocket session endpoint.
func NewRouter(rest *RESTHandler, ws *WSHandler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	router.HandleFunc("/categories", rest.listCategories).Methods(http.MethodGet)
	router.HandleFunc("/categories/{id}", rest.getCategory).Methods(http.MethodGet)
	router.HandleFunc("/categories/{id}/questions", rest.listQuestions).Methods(http.MethodGet)
	router.HandleFunc("/history/{userId}", rest.listHistory).Methods(http.MethodGet)
	router.HandleFunc("/ws", ws.ServeWS)
	return router
}

func (h *RESTHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, categories)
}

func (h *RESTHandler) getCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.categories.GetCategory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrCategoryNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, category)
}

func (h *RESTHandler) listQuestions(w http.ResponseWriter, r *http.Request) {
	filter := app.QuestionFilter{
		Language: r.URL.Query().Get("language"),
		Limit:    queryInt(r, "limit"),
	}
	questions, err := h.questions.ListQuestions(r.Context(), mux.Vars(r)["id"], filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, newQuestionView(q))
	}
	writeJSON(w, views)
}

func (h *RESTHandler) listHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, []domain.Attempt{})
		return
	}
	attempts, err := h.history.RecentAttempts(r.Context(), mux.Vars(r)["userId"], queryInt(r, "limit"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if attempts == nil {
		attempts = []domain.Attempt{}
	}
	writeJSON(w, attempts)
}

func queryInt(r *http.Request, name string) int {
	if raw := r.URL.Query().Get(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorPayload{Message: err.Error()})
}
