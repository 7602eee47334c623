// Package module wires the order lookup into the API using modkit
package module

import (
	"net/http"
	"time"

	"masterbox/internal/adapters/commerce"
	modkit "masterbox/internal/modkit"
	"masterbox/internal/modkit/httpkit"
	"masterbox/internal/platform/config"
	"masterbox/internal/platform/logger"
	str "masterbox/internal/platform/strings"
	"masterbox/internal/services/orders/domain"
	ordershttp "masterbox/internal/services/orders/http"
	orderssvc "masterbox/internal/services/orders/service"
)

// Ports exposes the order lookup to other modules
type Ports struct {
	Service domain.ServicePort
}

// buildSource makes a storefront source from one config view, nil when that
// backend has no base url.
func buildSource(cfg config.Conf) domain.Source {
	base := cfg.MayString("BASE_URL", "")
	if base == "" {
		return nil
	}
	return orderssvc.CommerceSource{Client: commerce.New(commerce.Options{
		BaseURL: base,
		Token:   cfg.MayString("TOKEN", ""),
		Timeout: cfg.MayDuration("TIMEOUT", 10*time.Second),
		Window:  cfg.MayDuration("WINDOW", 30*24*time.Hour),
	})}
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

// New constructs an orders module with the provided dependencies and options.
// Without a configured storefront the lookup still serves sentinel emails but
// reports not found for real customers.
func New(deps modkit.Deps, opts ...modkit.Option) modkit.Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("orders"), modkit.WithPrefix("/orders")}, opts...)...)

	cfg := deps.Cfg.Prefix("COMMERCE_")

	source := buildSource(cfg)
	if source == nil {
		logger.Named("orders.module").Warn().Msg("no storefront configured, order lookup limited to sentinels")
	}

	// requests arriving from the staging site get the UAT storefront
	svc := orderssvc.New(source, buildSource(deps.Cfg.Prefix("COMMERCE_UAT_")))

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
		ordershttp.Register(r, m.svc)
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
