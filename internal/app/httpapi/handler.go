package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/jarvisfi/jarvisfi/internal/app/domain/farm"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/finance"
	"github.com/jarvisfi/jarvisfi/internal/app/domain/user"
	"github.com/jarvisfi/jarvisfi/internal/app/metrics"
	"github.com/jarvisfi/jarvisfi/internal/app/services/admin"
	"github.com/jarvisfi/jarvisfi/internal/app/services/auth"
	"github.com/jarvisfi/jarvisfi/internal/app/services/chat"
	"github.com/jarvisfi/jarvisfi/internal/app/services/community"
	"github.com/jarvisfi/jarvisfi/internal/app/services/farmer"
	financesvc "github.com/jarvisfi/jarvisfi/internal/app/services/finance"
	"github.com/jarvisfi/jarvisfi/internal/app/services/translate"
	"github.com/jarvisfi/jarvisfi/internal/app/services/voice"
	"github.com/jarvisfi/jarvisfi/internal/app/storage"
	"github.com/jarvisfi/jarvisfi/internal/middleware"
	"github.com/jarvisfi/jarvisfi/pkg/logger"
)

var errNotAuthenticated = errors.New("not authenticated")

// AppInfo describes the running application for the root endpoint.
type AppInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Environment string `json:"environment"`
}

// Features toggles the optional route groups.
type Features struct {
	Voice     bool
	Farmer    bool
	Community bool
}

// Backends names the configured backing integrations for /health.
type Backends struct {
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Advisor     string `json:"advisor"`
	Translation string `json:"translation"`
	Voice       string `json:"voice"`
}

// Services bundles everything the handlers call.
type Services struct {
	Auth      *auth.Service
	Chat      *chat.Service
	Finance   *financesvc.Service
	Translate *translate.Service
	Voice     *voice.Service
	Farmer    *farmer.Service
	Community *community.Service
	Admin     *admin.Service
	Alerts    storage.AlertStore
}

// Handler serves the REST API.
type Handler struct {
	info     AppInfo
	features Features
	backends Backends
	services Services
	audit    *AuditLog
	log      *logger.Logger
	started  time.Time
}

// NewHandler builds the API router.
func NewHandler(info AppInfo, features Features, backends Backends, services Services, audit *AuditLog, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	if audit == nil {
		audit = NewAuditLog(0)
	}
	return &Handler{
		info:     info,
		features: features,
		backends: backends,
		services: services,
		audit:    audit,
		log:      log,
		started:  time.Now(),
	}
}

// Audit exposes the audit log for middleware wiring.
func (h *Handler) Audit() *AuditLog { return h.audit }

// Router returns the route table. Authentication and the rest of the
// middleware chain wrap this router at server assembly.
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	authAPI := api.PathPrefix("/auth").Subrouter()
	authAPI.HandleFunc("/register", h.register).Methods(http.MethodPost)
	authAPI.HandleFunc("/login", h.login).Methods(http.MethodPost)
	authAPI.HandleFunc("/logout", h.logout).Methods(http.MethodPost)
	authAPI.HandleFunc("/me", h.me).Methods(http.MethodGet)
	authAPI.HandleFunc("/profile", h.updateProfile).Methods(http.MethodPut)

	chatAPI := api.PathPrefix("/chat").Subrouter()
	chatAPI.HandleFunc("/conversations", h.createConversation).Methods(http.MethodPost)
	chatAPI.HandleFunc("/conversations", h.listConversations).Methods(http.MethodGet)
	chatAPI.HandleFunc("/conversations/{id}", h.getConversation).Methods(http.MethodGet)
	chatAPI.HandleFunc("/conversations/{id}", h.deleteConversation).Methods(http.MethodDelete)
	chatAPI.HandleFunc("/conversations/{id}/messages", h.listMessages).Methods(http.MethodGet)
	chatAPI.HandleFunc("/conversations/{id}/messages", h.sendMessage).Methods(http.MethodPost)
	chatAPI.HandleFunc("/ws", h.chatSocket).Methods(http.MethodGet)

	finAPI := api.PathPrefix("/financial").Subrouter()
	finAPI.HandleFunc("/calculators/{calculator}", h.calculate).Methods(http.MethodPost)
	finAPI.HandleFunc("/budgets", h.createBudget).Methods(http.MethodPost)
	finAPI.HandleFunc("/budgets", h.listBudgets).Methods(http.MethodGet)
	finAPI.HandleFunc("/budgets/{id}", h.getBudget).Methods(http.MethodGet)
	finAPI.HandleFunc("/budgets/{id}/spend", h.recordSpending).Methods(http.MethodPost)
	finAPI.HandleFunc("/goals", h.createGoal).Methods(http.MethodPost)
	finAPI.HandleFunc("/goals", h.listGoals).Methods(http.MethodGet)
	finAPI.HandleFunc("/goals/{id}/savings", h.addSavings).Methods(http.MethodPost)
	finAPI.HandleFunc("/goals/{id}", h.deleteGoal).Methods(http.MethodDelete)
	finAPI.HandleFunc("/alerts", h.listAlerts).Methods(http.MethodGet)

	api.HandleFunc("/translate/catalog", h.catalog).Methods(http.MethodGet)
	api.HandleFunc("/translate", h.translateText).Methods(http.MethodPost)

	voiceAPI := api.PathPrefix("/voice").Subrouter()
	voiceAPI.HandleFunc("/transcribe", h.transcribe).Methods(http.MethodPost)
	voiceAPI.HandleFunc("/synthesize", h.synthesize).Methods(http.MethodPost)

	farmerAPI := api.PathPrefix("/farmer").Subrouter()
	farmerAPI.HandleFunc("/schemes", h.schemes).Methods(http.MethodGet)
	farmerAPI.HandleFunc("/loan-eligibility", h.loanEligibility).Methods(http.MethodPost)
	farmerAPI.HandleFunc("/advisory", h.advisory).Methods(http.MethodGet)

	communityAPI := api.PathPrefix("/community").Subrouter()
	communityAPI.HandleFunc("/posts", h.createPost).Methods(http.MethodPost)
	communityAPI.HandleFunc("/posts", h.listPosts).Methods(http.MethodGet)
	communityAPI.HandleFunc("/posts/{id}", h.getPost).Methods(http.MethodGet)
	communityAPI.HandleFunc("/posts/{id}/replies", h.replyPost).Methods(http.MethodPost)
	communityAPI.HandleFunc("/posts/{id}/flag", h.flagPost).Methods(http.MethodPost)

	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.HandleFunc("/stats", middleware.RequireRole("admin", h.adminStats)).Methods(http.MethodGet)
	adminAPI.HandleFunc("/system", middleware.RequireRole("admin", h.adminSystem)).Methods(http.MethodGet)
	adminAPI.HandleFunc("/users", middleware.RequireRole("admin", h.adminUsers)).Methods(http.MethodGet)
	adminAPI.HandleFunc("/audit", middleware.RequireRole("admin", h.adminAudit)).Methods(http.MethodGet)
	adminAPI.HandleFunc("/community/posts/{id}/restore", middleware.RequireRole("admin", h.restorePost)).Methods(http.MethodPost)

	return r
}

// SkipAuthPaths lists routes served without a bearer token.
func SkipAuthPaths() []string {
	return []string{
		"/",
		"/health",
		"/metrics",
		"/api/v1/auth/register",
		"/api/v1/auth/login",
	}
}

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"app":     h.info,
		"message": "Welcome to JarvisFi. See /health for status and /api/v1 for the API.",
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	backends := h.backends
	if !h.features.Voice || !h.services.Voice.Enabled() {
		backends.Voice = "disabled"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"version":        h.info.Version,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
		"services":       backends,
		"features": map[string]bool{
			"voice":     h.features.Voice && h.services.Voice.Enabled(),
			"farmer":    h.features.Farmer,
			"community": h.features.Community,
		},
	})
}

// --- auth -------------------------------------------------------------------

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string    `json:"email"`
		Password string    `json:"password"`
		Name     string    `json:"name"`
		Language string    `json:"language"`
		UserType user.Type `json:"user_type"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, err := h.services.Auth.Register(r.Context(), payload.Email, payload.Password, payload.Name, payload.Language, payload.UserType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	u, token, err := h.services.Auth.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":         u,
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token != "" {
		_ = h.services.Auth.Logout(r.Context(), token)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errNotAuthenticated)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errNotAuthenticated)
		return
	}

	var profile user.Profile
	if err := decodeJSON(r.Body, &profile); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	updated, err := h.services.Auth.UpdateProfile(r.Context(), u.ID, profile)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// --- chat -------------------------------------------------------------------

func (h *Handler) createConversation(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	var payload struct {
		Title    string `json:"title"`
		Language string `json:"language"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Language == "" {
		payload.Language = u.Profile.Language
	}

	conv, err := h.services.Chat.StartConversation(r.Context(), u.ID, payload.Title, payload.Language)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	convs, err := h.services.Chat.ListConversations(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *Handler) deleteConversation(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	if err := h.services.Chat.DeleteConversation(r.Context(), u.ID, mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getConversation(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	conv, err := h.services.Chat.GetConversation(r.Context(), u.ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	msgs, err := h.services.Chat.History(r.Context(), u.ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	var payload struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	reply, err := h.services.Chat.Send(r.Context(), u.ID, mux.Vars(r)["id"], payload.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	metrics.RecordChatMessage("api", time.Since(start))
	writeJSON(w, http.StatusCreated, reply)
}

// --- financial --------------------------------------------------------------

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["calculator"]

	var result interface{}
	var err error

	switch name {
	case "sip":
		var p struct {
			Monthly    float64 `json:"monthly_amount"`
			AnnualRate float64 `json:"annual_rate"`
			Years      int     `json:"years"`
		}
		if err = decodeJSON(r.Body, &p); err == nil {
			result, err = financesvc.SIP(p.Monthly, p.AnnualRate, p.Years)
		}
	case "lumpsum":
		var p struct {
			Principal  float64 `json:"principal"`
			AnnualRate float64 `json:"annual_rate"`
			Years      int     `json:"years"`
		}
		if err = decodeJSON(r.Body, &p); err == nil {
			result, err = financesvc.Lumpsum(p.Principal, p.AnnualRate, p.Years)
		}
	case "emi":
		var p struct {
			Principal  float64 `json:"principal"`
			AnnualRate float64 `json:"annual_rate"`
			TermMonths int     `json:"term_months"`
		}
		if err = decodeJSON(r.Body, &p); err == nil {
			result, err = financesvc.EMI(p.Principal, p.AnnualRate, p.TermMonths)
		}
	case "retirement":
		var p struct {
			CurrentAge      int     `json:"current_age"`
			RetirementAge   int     `json:"retirement_age"`
			MonthlyExpenses float64 `json:"monthly_expenses"`
			AnnualReturn    float64 `json:"annual_return"`
			Inflation       float64 `json:"inflation"`
		}
		if err = decodeJSON(r.Body, &p); err == nil {
			result, err = financesvc.Retirement(p.CurrentAge, p.RetirementAge, p.MonthlyExpenses, p.AnnualReturn, p.Inflation)
		}
	case "emergency-fund":
		var p struct {
			MonthlyExpenses float64 `json:"monthly_expenses"`
			Current         float64 `json:"current"`
			Months          int     `json:"months"`
		}
		if err = decodeJSON(r.Body, &p); err == nil {
			result, err = financesvc.EmergencyFund(p.MonthlyExpenses, p.Current, p.Months)
		}
	case "tax":
		var p struct {
			AnnualIncome float64 `json:"annual_income"`
			Deductions   float64 `json:"deductions"`
		}
		if err = decodeJSON(r.Body, &p); err == nil {
			result, err = financesvc.Tax(p.AnnualIncome, p.Deductions)
		}
	case "budget":
		var p struct {
			MonthlyIncome float64 `json:"monthly_income"`
		}
		if err = decodeJSON(r.Body, &p); err == nil {
			result, err = financesvc.BudgetRule(p.MonthlyIncome)
		}
	case "debt-payoff":
		var p struct {
			Debts         []finance.Debt `json:"debts"`
			MonthlyBudget float64        `json:"monthly_budget"`
		}
		if err = decodeJSON(r.Body, &p); err == nil {
			result, err = financesvc.DebtPayoff(p.Debts, p.MonthlyBudget)
		}
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown calculator %q", name))
		return
	}

	metrics.RecordCalculatorRun(name, err == nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) createBudget(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	var payload struct {
		Month         string             `json:"month"`
		MonthlyIncome float64            `json:"monthly_income"`
		Limits        map[string]float64 `json:"limits"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	b, err := h.services.Finance.CreateBudget(r.Context(), u.ID, payload.Month, payload.MonthlyIncome, payload.Limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) listBudgets(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	budgets, err := h.services.Finance.ListBudgets(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (h *Handler) getBudget(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	b, err := h.services.Finance.GetBudget(r.Context(), u.ID, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) recordSpending(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	var payload struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	b, err := h.services.Finance.RecordSpending(r.Context(), u.ID, mux.Vars(r)["id"], payload.Category, payload.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) createGoal(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	var payload struct {
		Name         string    `json:"name"`
		TargetAmount float64   `json:"target_amount"`
		TargetDate   time.Time `json:"target_date"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	g, err := h.services.Finance.CreateGoal(r.Context(), u.ID, payload.Name, payload.TargetAmount, payload.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

func (h *Handler) listGoals(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	goals, err := h.services.Finance.ListGoals(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *Handler) addSavings(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	var payload struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	g, err := h.services.Finance.AddSavings(r.Context(), u.ID, mux.Vars(r)["id"], payload.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) deleteGoal(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	if err := h.services.Finance.DeleteGoal(r.Context(), u.ID, mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFrom(r.Context())

	alerts, err := h.services.Alerts.ListAlerts(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// --- translate --------------------------------------------------------------

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	lang := r.URL.Query().Get("lang")
	if lang == "" {
		if u, ok := middleware.UserFrom(r.Context()); ok {
			lang = u.Profile.Language
		}
	}
	writeJSON(w, http.StatusOK, h.services.Translate.Catalog(lang))
}

func (h *Handler) translateText(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	translated, err := h.services.Translate.Translate(r.Context(), payload.Text, payload.From, payload.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"translated": translated})
}

// --- voice ------------------------------------------------------------------

func (h *Handler) transcribe(w http.ResponseWriter, r *http.Request) {
	if !h.voiceAvailable(w) {
		return
	}

	var payload struct {
		Audio    []byte `json:"audio"` // base64 in JSON
		Language string `json:"language"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	text, err := h.services.Voice.Transcribe(r.Context(), payload.Audio, payload.Language)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *Handler) synthesize(w http.ResponseWriter, r *http.Request) {
	if !h.voiceAvailable(w) {
		return
	}

	var payload struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	audio, err := h.services.Voice.Synthesize(r.Context(), payload.Text, payload.Language)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]byte{"audio": audio})
}

func (h *Handler) voiceAvailable(w http.ResponseWriter) bool {
	if !h.features.Voice || !h.services.Voice.Enabled() {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("voice processing is not available"))
		return false
	}
	return true
}

// --- farmer -----------------------------------------------------------------

func (h *Handler) schemes(w http.ResponseWriter, r *http.Request) {
	if !h.farmerAvailable(w) {
		return
	}
	writeJSON(w, http.StatusOK, h.services.Farmer.Schemes())
}

func (h *Handler) loanEligibility(w http.ResponseWriter, r *http.Request) {
	if !h.farmerAvailable(w) {
		return
	}

	var req farm.LoanRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	offers, err := h.services.Farmer.LoanEligibility(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, offers)
}

func (h *Handler) advisory(w http.ResponseWriter, r *http.Request) {
	if !h.farmerAvailable(w) {
		return
	}

	adv, err := h.services.Farmer.Advisory(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, adv)
}

func (h *Handler) farmerAvailable(w http.ResponseWriter) bool {
	if !h.features.Farmer {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("farmer tools are disabled"))
		return false
	}
	return true
}

// --- community --------------------------------------------------------------

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	if !h.communityAvailable(w) {
		return
	}
	u, _ := middleware.UserFrom(r.Context())

	var payload struct {
		Topic    string `json:"topic"`
		Title    string `json:"title"`
		Body     string `json:"body"`
		Language string `json:"language"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := h.services.Community.CreatePost(r.Context(), u.ID, payload.Topic, payload.Title, payload.Body, payload.Language)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	if !h.communityAvailable(w) {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	posts, err := h.services.Community.ListPosts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	if !h.communityAvailable(w) {
		return
	}

	p, replies, err := h.services.Community.GetPost(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"post": p, "replies": replies})
}

func (h *Handler) replyPost(w http.ResponseWriter, r *http.Request) {
	if !h.communityAvailable(w) {
		return
	}
	u, _ := middleware.UserFrom(r.Context())

	var payload struct {
		Body string `json:"body"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reply, err := h.services.Community.Reply(r.Context(), u.ID, mux.Vars(r)["id"], payload.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, reply)
}

func (h *Handler) flagPost(w http.ResponseWriter, r *http.Request) {
	if !h.communityAvailable(w) {
		return
	}

	p, err := h.services.Community.Flag(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"flags": p.Flags, "hidden": p.Hidden})
}

func (h *Handler) restorePost(w http.ResponseWriter, r *http.Request) {
	p, err := h.services.Community.Restore(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) communityAvailable(w http.ResponseWriter) bool {
	if !h.features.Community {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("community forum is disabled"))
		return false
	}
	return true
}

// --- admin ------------------------------------------------------------------

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	ov, err := h.services.Admin.Overview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (h *Handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.services.Admin.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) adminSystem(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.services.Admin.Stats(r.Context()))
}

func (h *Handler) adminAudit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.audit.Entries())
}

// --- helpers ----------------------------------------------------------------

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(body io.ReadCloser, dst interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error":       true,
		"message":     err.Error(),
		"status_code": status,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}
