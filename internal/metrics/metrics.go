// Package metrics defines and registers the custom Prometheus metrics of the
// health registry. It is the single source of truth for metric names, labels,
// and help strings. HTTP request metrics come from the echoprometheus
// middleware and are not declared here.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "registry"

// ── Record metrics ────────────────────────────────────────────────────────────

// RecordsCreatedTotal counts records persisted by the domain operations.
// Label:
//   - kind: "program", "client" or "enrollment"
var RecordsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "records_created_total",
		Help:      "Total number of registry records created, by kind.",
	},
	[]string{"kind"},
)

// RecordConflictsTotal counts create calls rejected as duplicates.
// Label:
//   - kind: "program", "client" or "enrollment"
var RecordConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "record_conflicts_total",
		Help:      "Total number of create calls rejected because the record already exists.",
	},
	[]string{"kind"},
)

// ProfileCacheTotal counts client profile cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var ProfileCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "profile_cache_total",
		Help:      "Total number of client profile cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// ── Access metrics ────────────────────────────────────────────────────────────

// AccessDeniedTotal counts operations rejected by the access guard.
// Labels:
//   - required_role: the role the operation requires
//   - role: the role the caller holds
var AccessDeniedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Total number of operations denied by role check.",
	},
	[]string{"required_role", "role"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, labelled by result.",
	},
	[]string{"result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditEntriesTotal counts audit entries appended successfully.
// Label:
//   - action: the audit action tag (e.g. "create_program")
var AuditEntriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_entries_total",
		Help:      "Total number of audit entries written, by action.",
	},
	[]string{"action"},
)

// AuditFailuresTotal counts audit entries that could not be written.
// Label:
//   - action: the audit action tag
var AuditFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_failures_total",
		Help:      "Total number of audit entries dropped because the store rejected them.",
	},
	[]string{"action"},
)

// Collectors returns every metric declared here. They are registered on the
// default registry at init; callers serving a different registry register
// them there as well.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		RecordsCreatedTotal,
		RecordConflictsTotal,
		ProfileCacheTotal,
		AccessDeniedTotal,
		LoginsTotal,
		AuditEntriesTotal,
		AuditFailuresTotal,
	}
}
