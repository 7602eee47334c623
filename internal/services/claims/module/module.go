// Package module wires the claim guard into the API using modkit
package module

import (
	"net/http"
	"time"

	"masterbox/internal/adapters/automation"
	"masterbox/internal/adapters/sheets"
	modkit "masterbox/internal/modkit"
	"masterbox/internal/modkit/httpkit"
	"masterbox/internal/platform/logger"
	str "masterbox/internal/platform/strings"
	"masterbox/internal/services/claims/domain"
	claimshttp "masterbox/internal/services/claims/http"
	claimsrepo "masterbox/internal/services/claims/repo"
	claimssvc "masterbox/internal/services/claims/service"
)

// Ports exposes the claim guard to other modules
type Ports struct {
	Service domain.ServicePort
}

// Module implements the modkit.Module interface
type Module struct {
	deps   modkit.Deps
	name   string
	prefix string

	mws       []func(http.Handler) http.Handler
	ports     any
	swaggerOn bool

	subrouter func(httpkit.Router) httpkit.Router
	register  func(httpkit.Router)

	svc domain.ServicePort
}

// New constructs a claims module with the provided dependencies and options.
// Ledger selection: a Postgres pool wins, a configured webhook is next, and
// with neither the guard degrades (checks pass open, submits report the
// missing store).
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("claims"), modkit.WithPrefix("/claims")}, opts...)...)

	cfg := deps.Cfg.Prefix("CLAIMS_")
	log := logger.Named("claims.module")

	var ledger domain.Ledger
	switch {
	case deps.PG != nil:
		ledger = claimsrepo.NewPG(deps.PG, cfg.MayDuration("LOCK_TIMEOUT", 30*time.Second))
	case cfg.MayString("LEDGER_WEBHOOK_URL", "") != "":
		ledger = sheets.New(sheets.Options{
			WebhookURL:   cfg.MustString("LEDGER_WEBHOOK_URL"),
			ReadTimeout:  cfg.MayDuration("LEDGER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: cfg.MayDuration("LEDGER_WRITE_TIMEOUT", 30*time.Second),
		})
	default:
		log.Warn().Msg("no claim store configured, duplicate guard degraded")
	}

	var (
		sinks    claimsrepo.FanoutSink
		notifier domain.Notifier
	)
	if base := cfg.MayString("AUTOMATION_BASE_URL", ""); base != "" {
		ac := automation.New(automation.Options{
			BaseURL:     base,
			LicenseCode: cfg.MayString("AUTOMATION_LICENSE_CODE", ""),
			APIKey:      cfg.MayString("AUTOMATION_API_KEY", ""),
		})
		sinks = append(sinks, ac)
		notifier = ac
	}
	if deps.CH != nil {
		sinks = append(sinks, claimsrepo.NewCHAttempts(deps.CH))
	}
	var sink domain.AttemptSink
	if len(sinks) > 0 {
		sink = sinks
	}

	svc := claimssvc.New(ledger, sink, notifier, claimssvc.Config{
		Campaign: cfg.MayString("CAMPAIGN", "masterbox"),
	})

	m := &Module{
		deps:      deps,
		name:      b.Name,
		prefix:    b.Prefix,
		mws:       b.Mw,
		swaggerOn: b.SwaggerOn,
		subrouter: b.Subrouter,
		svc:       svc,
	}
	m.ports = Ports{Service: svc}

	external := b.Register
	m.register = func(r httpkit.Router) {
		claimshttp.Register(r, m.svc)
		if external != nil {
			external(r)
		}
	}
	return m
}

// MountRoutes implements the modkit.Module interface
func (m *Module) MountRoutes(r httpkit.Router) {
	r.Route(m.prefix, func(rr httpkit.Router) {
		for _, mw := range m.mws {
			rr.Use(mw)
		}
		if m.subrouter != nil {
			rr = m.subrouter(rr)
		}
		if m.register != nil {
			m.register(rr)
		}
	})
}

// Name returns the module name
func (m *Module) Name() string { return str.MustString(m.name, "module name") }

// Prefix returns the module route prefix
func (m *Module) Prefix() string { return str.MustPrefix(m.prefix) }

// Middlewares returns the module middlewares
func (m *Module) Middlewares() []func(http.Handler) http.Handler { return m.mws }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
