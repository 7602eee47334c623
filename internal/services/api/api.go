// Package api provides the HTTP API for the application
package api

import (
	"masterbox/internal/platform/config"
	"masterbox/internal/platform/logger"
	phttp "masterbox/internal/platform/net/http"
	"masterbox/internal/platform/store"

	"masterbox/internal/modkit"
	"masterbox/internal/modkit/httpkit"
	"masterbox/internal/modkit/module"
	"masterbox/internal/modkit/swaggerkit"

	metamod "masterbox/internal/services/api/meta/module"
	claimsmod "masterbox/internal/services/claims/module"
	ordersmod "masterbox/internal/services/orders/module"
)

// Options are the API options
type Options struct {
	Config         config.Conf
	Store          *store.Store
	Logger         *logger.Logger
	EnableSwagger  bool
	EnableProfiler bool
}

// Mount mounts the API service onto the given router
func Mount(r phttp.Router, opt Options) {
	// shared deps for modules
	deps := modkit.Deps{
		Cfg: opt.Config,
	}
	if opt.Store != nil {
		deps.PG = opt.Store.PG
		deps.CH = opt.Store.CH
	}

	mods := []module.Module{
		metamod.New(deps),
		claimsmod.New(deps),
		ordersmod.New(deps),
	}

	// versioned API with a common middleware stack
	httpkit.MountAPIV1(r, httpkit.CommonStack(), func(api httpkit.Router) {
		// Swagger + profiler
		swaggerkit.Mount(r, opt.EnableSwagger)
		phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

		for _, m := range mods {
			// register each module's ports under its own name (for cross-module lookups)
			module.Register(m.Name(), m.Ports())

			// mount module routes under its Prefix()
			m.MountRoutes(api)
		}
	})
}
