package api

import (
	"github.com/gradethread/gradethread/internal/pipeline"
	"github.com/gradethread/gradethread/internal/reports"
	"github.com/gradethread/gradethread/internal/submissions"
	"github.com/gradethread/gradethread/internal/webhooks"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Submissions submissions.System
	Reports     reports.System
	Webhooks    webhooks.System
	Pipeline    *pipeline.Orchestrator
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	submissionsSystem := submissions.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	reportsSystem := reports.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	webhooksSystem := webhooks.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	dispatcher := webhooks.NewDispatcher(
		webhooksSystem,
		nil,
		webhooks.DefaultDeliveryConfig(),
		runtime.Logger,
	)

	orchestrator := pipeline.New(
		submissionsSystem,
		reportsSystem,
		runtime.Storage,
		runtime.Vision,
		dispatcher,
		runtime.Mailer,
		runtime.Logger,
	)

	return &Domain{
		Submissions: submissionsSystem,
		Reports:     reportsSystem,
		Webhooks:    webhooksSystem,
		Pipeline:    orchestrator,
	}
}
