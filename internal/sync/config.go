package sync

import (
	"time"

	"github.com/dirsync/dirsync/internal/directory"
)

const (
	// RemovedDomainSID replaces the domain SID of users whose directory object is gone.
	// It is the null SID, which no domain carries.
	RemovedDomainSID = "S-1-0-0"

	// ReasonRemoved is stored on users disabled because their directory object is gone.
	ReasonRemoved = "no longer exists in directory"
	// ReasonDisabled is stored on users disabled because their directory account is disabled.
	ReasonDisabled = "disabled in directory"
)

// Config is the snapshot of settings a run works with.
type Config struct {
	// ImportEnabled allows Importer runs.
	ImportEnabled bool
	// ExportEnabled allows Exporter runs.
	ExportEnabled bool
	// Params describes how to reach the directory.
	Params directory.Params
	// ServiceUser and ServicePassword are the account every run binds as.
	ServiceUser     string
	ServicePassword string //nolint:gosec // configuration value
	// DomainSID is the SID of the domain accounts are imported from.
	DomainSID string
	// Groups lists the groups to import, separated by ";". "id:<n>" selects
	// the accounts with primary group n.
	Groups string
	// ImportDisabled also imports accounts that are disabled in the directory.
	ImportDisabled bool
	// AutoDeactivate disables local users whose directory account is disabled.
	AutoDeactivate bool
	// MinRunTime is the least time a run is granted, even if the caller's deadline is closer.
	MinRunTime time.Duration
}

// Outcome is the result of processing one identity.
type Outcome int

const (
	// OutcomeFailed means the identity could not be processed.
	OutcomeFailed Outcome = iota
	// OutcomeCreated means a local user was created.
	OutcomeCreated
	// OutcomeUpdated means an existing local user was updated, or a write-back succeeded.
	OutcomeUpdated
	// OutcomeSkipped means the identity was intentionally left alone.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Report aggregates the outcomes of a run.
type Report struct {
	Added   int
	Updated int
	Failed  int
	Skipped int
	Elapsed time.Duration
}

// Add counts one outcome.
func (r *Report) Add(o Outcome) {
	switch o {
	case OutcomeCreated:
		r.Added++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
	default:
		r.Failed++
	}
}

// Total is the number of processed identities.
func (r Report) Total() int {
	return r.Added + r.Updated + r.Failed + r.Skipped
}
