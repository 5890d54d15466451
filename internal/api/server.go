package api

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	tgmodels "github.com/go-telegram/bot/models"

	"github.com/relomove/leadbot/internal/engine"
	"github.com/relomove/leadbot/internal/messaging"
	"github.com/relomove/leadbot/internal/models"
	"github.com/relomove/leadbot/internal/store"
)

// maxWebhookBody caps inbound webhook payloads.
const maxWebhookBody = 1 << 20

// Server wires the provider webhooks to the engine. Twilio replies ride the
// webhook response as TwiML; Telegram and Meta replies go out through their
// senders.
type Server struct {
	engine        *engine.Engine
	store         store.Store
	senders       map[models.Provider]messaging.Sender
	addr          string
	defaultTenant string
	metaVerify    string
	apiKey        string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.addr = addr }
}

// WithDefaultTenant sets the tenant used when a webhook carries none.
func WithDefaultTenant(tenant string) ServerOption {
	return func(s *Server) { s.defaultTenant = tenant }
}

// WithSender registers the outbound sender for a provider.
func WithSender(p models.Provider, sender messaging.Sender) ServerOption {
	return func(s *Server) { s.senders[p] = sender }
}

// WithMetaVerifyToken sets the token for Meta's webhook verification GET.
func WithMetaVerifyToken(token string) ServerOption {
	return func(s *Server) { s.metaVerify = token }
}

// WithAPIKey protects the operator endpoints with an X-API-Key header.
func WithAPIKey(key string) ServerOption {
	return func(s *Server) { s.apiKey = key }
}

// NewServer builds the HTTP surface over the engine and store.
func NewServer(eng *engine.Engine, st store.Store, opts ...ServerOption) *Server {
	s := &Server{
		engine:        eng,
		store:         st,
		senders:       make(map[models.Provider]messaging.Sender),
		addr:          ":8080",
		defaultTenant: "default",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the configured mux, separate from Run so tests can drive
// handlers through httptest.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/twilio", s.twilioWebhookHandler)
	mux.HandleFunc("/webhook/telegram", s.telegramWebhookHandler)
	mux.HandleFunc("/webhook/meta", s.metaWebhookHandler)
	mux.HandleFunc("/leads", s.leadsHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run serves until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	}
}

// tenantFor resolves the tenant from the query string, falling back to the
// configured default so single-tenant deployments need no URL changes.
func (s *Server) tenantFor(r *http.Request) string {
	if t := r.URL.Query().Get("tenant"); t != "" {
		return t
	}
	return s.defaultTenant
}

// twiml is the minimal TwiML reply envelope.
type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

func (s *Server) twilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.twilioWebhookHandler: failed to parse form", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid form payload"))
		return
	}
	msg, err := messaging.ParseTwilioInbound(s.tenantFor(r), r.PostForm)
	if err != nil {
		slog.Warn("Server.twilioWebhookHandler: invalid webhook", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid webhook payload"))
		return
	}
	reply, err := s.engine.HandleInbound(r.Context(), msg)
	if err != nil {
		slog.Error("Server.twilioWebhookHandler: engine failed", "error", err, "chatID", msg.ChatID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if err := xml.NewEncoder(w).Encode(twiml{Message: reply}); err != nil {
		slog.Error("Server.twilioWebhookHandler: failed to write TwiML", "error", err)
	}
}

func (s *Server) telegramWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	var update tgmodels.Update
	if err := json.NewDecoder(io.LimitReader(r.Body, maxWebhookBody)).Decode(&update); err != nil {
		slog.Warn("Server.telegramWebhookHandler: failed to decode update", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid update payload"))
		return
	}
	msg := messaging.ParseTelegramUpdate(s.tenantFor(r), &update)
	if msg == nil {
		writeJSONResponse(w, http.StatusOK, models.Ignored("No message in update"))
		return
	}
	reply, err := s.engine.HandleInbound(r.Context(), msg)
	if err != nil {
		slog.Error("Server.telegramWebhookHandler: engine failed", "error", err, "chatID", msg.ChatID)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to process message"))
		return
	}
	s.sendReply(r.Context(), models.ProviderTelegram, msg.ChatID, reply)
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

func (s *Server) metaWebhookHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.metaVerifyHandler(w, r)
	case http.MethodPost:
		s.metaDeliveryHandler(w, r)
	default:
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
	}
}

// metaVerifyHandler answers Meta's subscription challenge.
func (s *Server) metaVerifyHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != s.metaVerify || s.metaVerify == "" {
		slog.Warn("Server.metaVerifyHandler: verification rejected")
		writeJSONResponse(w, http.StatusForbidden, models.Error("Verification failed"))
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(q.Get("hub.challenge"))); err != nil {
		slog.Error("Server.metaVerifyHandler: failed to write challenge", "error", err)
	}
}

func (s *Server) metaDeliveryHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Failed to read body"))
		return
	}
	msgs, err := messaging.ParseMetaInbound(s.tenantFor(r), body)
	if err != nil {
		slog.Warn("Server.metaDeliveryHandler: invalid webhook", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid webhook payload"))
		return
	}
	for _, msg := range msgs {
		reply, err := s.engine.HandleInbound(r.Context(), msg)
		if err != nil {
			slog.Error("Server.metaDeliveryHandler: engine failed", "error", err, "chatID", msg.ChatID)
			continue
		}
		s.sendReply(r.Context(), models.ProviderMeta, msg.ChatID, reply)
	}
	// Meta retries on anything but 200, so processing errors are logged
	// rather than surfaced.
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

func (s *Server) sendReply(ctx context.Context, provider models.Provider, chatID, reply string) {
	if reply == "" {
		return
	}
	sender, ok := s.senders[provider]
	if !ok {
		slog.Error("Server.sendReply: no sender configured", "provider", provider)
		return
	}
	if err := sender.SendText(ctx, chatID, reply); err != nil {
		slog.Error("Server.sendReply: send failed",
			"provider", provider, "chatID", chatID, "error", err)
	}
}

// leadsHandler lists a tenant's newest leads for the operator tooling.
func (s *Server) leadsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	if s.apiKey != "" && r.Header.Get("X-API-Key") != s.apiKey {
		writeJSONResponse(w, http.StatusUnauthorized, models.Error("Invalid API key"))
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit"))
			return
		}
		limit = n
	}
	leads, err := s.store.ListLeads(r.Context(), s.tenantFor(r), limit)
	if err != nil {
		slog.Error("Server.leadsHandler: failed to list leads", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list leads"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(leads))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"status": "ok"}))
}
