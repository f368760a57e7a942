// Package server wires the helpdesk HTTP API: session issuance, the
// ticket endpoints, asset and license lookups, and the stocktaking and
// due-diligence campaign endpoints. All durable data lives in the
// external document store; handlers hold no state between requests.
package server

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/idstrust/helpdesk/internal/auth"
	"github.com/idstrust/helpdesk/internal/license"
	"github.com/idstrust/helpdesk/internal/logger"
	"github.com/idstrust/helpdesk/internal/notion"
	"github.com/idstrust/helpdesk/internal/server/respond"
	"github.com/idstrust/helpdesk/internal/session"
	"github.com/idstrust/helpdesk/internal/ticket"
)

// upstreamFailure is the generic body for any failed store call. The
// store's own status and message never reach the caller.
const upstreamFailure = "외부 저장소 요청에 실패했습니다."

// Config names the external collections the handlers touch.
type Config struct {
	AssetsDataSourceID           string
	AssetsDatabaseID             string
	InquiryDatabaseID            string
	RepairDatabaseID             string
	StocktakingDataSourceID      string
	StocktakingInfoDataSourceID  string
	DueDiligenceDataSourceID     string
	DueDiligenceInfoDataSourceID string
	CORSOrigins                  []string
}

// Server holds the request-scoped collaborators.
type Server struct {
	cfg      Config
	store    *notion.Client
	sessions *session.Service
	bearer   *auth.Authorizer
	tickets  *ticket.Service
	licenses *license.Service
	now      func() time.Time
}

func New(
	cfg Config,
	store *notion.Client,
	sessions *session.Service,
	bearer *auth.Authorizer,
	tickets *ticket.Service,
	licenses *license.Service,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		sessions: sessions,
		bearer:   bearer,
		tickets:  tickets,
		licenses: licenses,
		now:      time.Now,
	}
}

// WithClock overrides the time source used by the campaign-window
// checks. Used by tests.
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Handler builds the routing table with its middleware.
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Session issuance is open; the header-based query sits behind the
	// gate, the path-based lookup answers 404 on its own.
	sessionGate := auth.SessionGate(s.sessions)
	mux.HandleFunc("POST /api/session", s.createSession)
	mux.Handle("GET /api/session/query", sessionGate(http.HandlerFunc(s.querySession)))
	mux.HandleFunc("GET /api/session/{sessionId}", s.getSession)

	mux.HandleFunc("GET /api/health", s.health)

	mux.HandleFunc("GET /api/ticket/{type}/options", s.ticketOptions)
	mux.HandleFunc("POST /api/ticket/{type}", s.createTicket)
	mux.HandleFunc("GET /api/ticket/{type}/{ticketId}", s.ticketDetail)
	mux.HandleFunc("POST /api/ticket/{type}/{ticketId}/cancel", s.cancelTicket)

	bearerGate := s.bearer.Middleware()
	mux.Handle("POST /api/assets", bearerGate(http.HandlerFunc(s.searchAssets)))
	mux.Handle("GET /api/assets/options", bearerGate(http.HandlerFunc(s.assetOptions)))
	mux.Handle("GET /api/assets/corporations", bearerGate(http.HandlerFunc(s.assetCorporations)))
	mux.Handle("PATCH /api/assets/edit/{pageId}", bearerGate(http.HandlerFunc(s.editAsset)))

	mux.Handle("POST /api/license", sessionGate(http.HandlerFunc(s.searchLicenses)))
	mux.Handle("GET /api/license/options", sessionGate(http.HandlerFunc(s.licenseOptions)))

	mux.HandleFunc("GET /api/stocktaking/info", s.stocktakingInfo)
	mux.HandleFunc("POST /api/stocktaking", s.createStocktaking)
	mux.HandleFunc("PATCH /api/stocktaking/confirm/{pageId}", s.confirmStocktaking)

	mux.HandleFunc("POST /api/due-diligence", s.createDueDiligence)
	mux.HandleFunc("POST /api/due-diligence/lookup", s.lookupAsset)

	handler := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowedHeaders: []string{"Authorization", "Content-Type", auth.SessionHeader},
	}).Handler(mux)

	return logger.Requests(log)(handler)
}

// fail handles an error crossing the store boundary. Non-2xx
// responses and transport failures alike collapse to the same generic
// 500 body; the cause goes to the log, never to the caller.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("store request failed")
	respond.Error(w, http.StatusInternalServerError, upstreamFailure)
}

// today is the current ISO date used by campaign-window checks.
func (s *Server) today() string {
	return s.now().UTC().Format("2006-01-02")
}
