package http

import (
	"io"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"quizboard-service/internal/app"
)

// Services bundles the use cases served over HTTP.
type Services struct {
	Catalog     *app.CatalogService
	Quizzes     *app.QuizService
	Leaderboard *app.LeaderboardService
	Auth        *app.AuthService
}

// RouterOptions tunes the outer middleware.
type RouterOptions struct {
	AllowedOrigins []string
	AccessLog      io.Writer
}

// Handler serves the REST API and the live leaderboard feed.
type Handler struct {
	catalog     *app.CatalogService
	quizzes     *app.QuizService
	leaderboard *app.LeaderboardService
	auth        *app.AuthService
	upgrader    websocket.Upgrader
}

func NewHandler(s Services) *Handler {
	return &Handler{
		catalog:     s.Catalog,
		quizzes:     s.Quizzes,
		leaderboard: s.Leaderboard,
		auth:        s.Auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Routes registers every endpoint on a fresh router.
func (h *Handler) Routes() *mux.Router {
	r := mux.NewRouter().StrictSlash(true)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(h.authenticate)

	api.HandleFunc("/quizzes/", h.listQuizzes).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/", h.createQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id:[0-9]+}/", h.getQuiz).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id:[0-9]+}/", h.replaceQuiz).Methods(http.MethodPut)
	api.HandleFunc("/quizzes/{id:[0-9]+}/", h.patchQuiz).Methods(http.MethodPatch)
	api.HandleFunc("/quizzes/{id:[0-9]+}/", h.deleteQuiz).Methods(http.MethodDelete)
	api.HandleFunc("/quizzes/{id:[0-9]+}/submit/", h.submitQuiz).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id:[0-9]+}/leaderboard/", h.quizLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id:[0-9]+}/leaderboard/ws", h.ServeLeaderboardWS).Methods(http.MethodGet)

	api.HandleFunc("/questions/", h.listQuestions).Methods(http.MethodGet)
	api.HandleFunc("/questions/", h.createQuestion).Methods(http.MethodPost)
	api.HandleFunc("/questions/{id:[0-9]+}/", h.getQuestion).Methods(http.MethodGet)
	api.HandleFunc("/questions/{id:[0-9]+}/", h.replaceQuestion).Methods(http.MethodPut)
	api.HandleFunc("/questions/{id:[0-9]+}/", h.patchQuestion).Methods(http.MethodPatch)
	api.HandleFunc("/questions/{id:[0-9]+}/", h.deleteQuestion).Methods(http.MethodDelete)

	api.HandleFunc("/attempts/", h.listAttempts).Methods(http.MethodGet)
	api.HandleFunc("/attempts/{id:[0-9]+}/", h.getAttempt).Methods(http.MethodGet)

	api.HandleFunc("/leaderboard/", h.globalLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/stats/", h.stats).Methods(http.MethodGet)

	api.HandleFunc("/auth/login/", h.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/signup/", h.signup).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout/", h.logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/user/", h.currentUser).Methods(http.MethodGet)
	return r
}

// NewRouter wraps the routes with CORS and access logging.
func NewRouter(s Services, opts RouterOptions) http.Handler {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.AccessLog == nil {
		opts.AccessLog = os.Stdout
	}
	routes := NewHandler(s).Routes()
	cors := handlers.CORS(
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedOrigins(opts.AllowedOrigins),
	)
	return handlers.CombinedLoggingHandler(opts.AccessLog, cors(routes))
}
