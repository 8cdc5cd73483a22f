package api

import (
	"net/http"

	"github.com/gradethread/gradethread/internal/config"
	"github.com/gradethread/gradethread/internal/pipeline"
	"github.com/gradethread/gradethread/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	storage := newStorageHandler(
		runtime.Storage,
		runtime.Logger,
		cfg.Storage.MaxListSize,
	)

	grades := pipeline.NewHandler(domain.Pipeline, runtime.Logger)

	routes.Register(
		mux,
		domain.Submissions.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Reports.Handler().Routes(),
		domain.Webhooks.Handler().Routes(),
		grades.Routes(),
		storage.routes(),
	)
}
