package api

import (
	"github.com/gradethread/gradethread/internal/config"
	"github.com/gradethread/gradethread/internal/infrastructure"
	"github.com/gradethread/gradethread/internal/notify"
	"github.com/gradethread/gradethread/internal/vision"
	"github.com/gradethread/gradethread/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration and the
// vision and email collaborators.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Vision     *vision.Client
	Mailer     *notify.Mailer
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Pagination: cfg.API.Pagination,
		Vision:     vision.NewClient(cfg.Vision, logger),
		Mailer:     notify.NewMailer(cfg.Notify, nil, logger),
	}
}
