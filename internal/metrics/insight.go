package metrics

import (
	"fmt"
	"time"
)

// =============================================================================
// SEVERITY & CATEGORY
// =============================================================================

// Severity classifies how urgent an insight is. The constants form a
// total order (info < warning < critical) so callers can sort and filter
// by comparison.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Category identifies which subsystem an insight is about.
type Category int

const (
	CategoryThermal Category = iota
	CategoryCPU
	CategoryMemory
	CategoryDisk
	CategoryNetwork
	CategoryProcess
	CategoryDevWorkload
)

func (c Category) String() string {
	switch c {
	case CategoryThermal:
		return "thermal"
	case CategoryCPU:
		return "cpu"
	case CategoryMemory:
		return "memory"
	case CategoryDisk:
		return "disk"
	case CategoryNetwork:
		return "network"
	case CategoryProcess:
		return "process"
	case CategoryDevWorkload:
		return "dev-workload"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// =============================================================================
// SYSTEM STATUS
// =============================================================================

// SystemStatus is the overall condition derived from the active insight
// set: the maximum severity present, or StatusNormal when none are active.
type SystemStatus int

const (
	StatusNormal SystemStatus = iota
	StatusInfo
	StatusWarning
	StatusCritical
)

func (s SystemStatus) String() string {
	switch s {
	case StatusNormal:
		return "normal"
	case StatusInfo:
		return "info"
	case StatusWarning:
		return "warning"
	case StatusCritical:
		return "critical"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// StatusForSeverity maps an insight severity onto the status scale.
func StatusForSeverity(sev Severity) SystemStatus {
	switch sev {
	case SeverityCritical:
		return StatusCritical
	case SeverityWarning:
		return StatusWarning
	default:
		return StatusInfo
	}
}

// =============================================================================
// INSIGHT
// =============================================================================

// InsightMetrics carries the measured value that triggered an insight
// alongside the threshold it crossed.
type InsightMetrics struct {
	CurrentValue   float64
	ThresholdValue float64
	Unit           string
}

// Insight is a synthesized diagnostic statement. ID is deterministic for
// a given (category, root-cause signature) pair so that re-evaluating the
// same condition updates the active record instead of duplicating it.
type Insight struct {
	ID          string
	Title       string
	Description string
	Category    Category
	Severity    Severity
	Timestamp   time.Time

	// Explanation triple plus how sure the detector is, in [0, 1].
	Symptom        string
	RootCause      string
	Counterfactual string
	Confidence     float64

	Metrics          *InsightMetrics
	AffectedProcs    []string
	SuggestedActions []string
}

// InsightID builds the deterministic identifier for a category and
// root-cause signature, e.g. "cpu:saturation".
func InsightID(cat Category, signature string) string {
	return cat.String() + ":" + signature
}

// Clone returns a deep copy so consumers can hold an insight without
// sharing mutable slices with the engine.
func (i Insight) Clone() Insight {
	out := i
	if i.Metrics != nil {
		m := *i.Metrics
		out.Metrics = &m
	}
	if len(i.AffectedProcs) > 0 {
		out.AffectedProcs = append([]string(nil), i.AffectedProcs...)
	}
	if len(i.SuggestedActions) > 0 {
		out.SuggestedActions = append([]string(nil), i.SuggestedActions...)
	}
	return out
}
