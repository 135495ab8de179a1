package coverage

import (
	"fmt"
	"math"
	"time"
)

// StatusCompleted is the delivery-unit status that counts toward coverage.
const StatusCompleted = "completed"

// ServicePoint is a single visit/service event record.
type ServicePoint struct {
	ID        string     `json:"id"`
	FLWID     string     `json:"flw_id,omitempty"`
	VisitDate *time.Time `json:"visit_date,omitempty"`
}

// DeliveryUnit is a geographic/administrative work unit assigned for field service completion.
type DeliveryUnit struct {
	ID             string     `json:"id"`
	Name           string     `json:"name,omitempty"`
	Status         string     `json:"status"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	ServicePoints  []string   `json:"service_points,omitempty"`
	Buildings      int        `json:"buildings"`
	FLWID          string     `json:"flw_id,omitempty"`
}

// FieldWorker is an individual performing service-point visits.
type FieldWorker struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ServiceArea aggregates delivery units with started/completed flags.
type ServiceArea struct {
	ID          string `json:"id"`
	IsStarted   bool   `json:"is_started"`
	IsCompleted bool   `json:"is_completed"`
}

// CoverageData holds the full dataset for one analyzed opportunity/project.
// Instances are read-only once constructed; the statistics pipeline never mutates them.
type CoverageData struct {
	ProjectKey      string                   `json:"project_key"`
	OpportunityName string                   `json:"opportunity_name,omitempty"`
	ProjectSpace    string                   `json:"project_space,omitempty"`
	DeliveryUnits   map[string]*DeliveryUnit `json:"delivery_units,omitempty"`
	ServicePoints   map[string]*ServicePoint `json:"service_points,omitempty"`
	FieldWorkers    map[string]*FieldWorker  `json:"field_workers,omitempty"`
	ServiceAreas    map[string]*ServiceArea  `json:"service_areas,omitempty"`
}

// Normalize resolves optional display fields to their defaults and replaces
// nil collections with empty maps. Called once at construction time so the
// rest of the pipeline never special-cases per access.
func (c *CoverageData) Normalize() {
	if c.OpportunityName == "" {
		c.OpportunityName = c.ProjectKey
	}
	if c.ProjectSpace == "" {
		c.ProjectSpace = "Unknown"
	}
	if c.DeliveryUnits == nil {
		c.DeliveryUnits = make(map[string]*DeliveryUnit)
	}
	if c.ServicePoints == nil {
		c.ServicePoints = make(map[string]*ServicePoint)
	}
	if c.FieldWorkers == nil {
		c.FieldWorkers = make(map[string]*FieldWorker)
	}
	if c.ServiceAreas == nil {
		c.ServiceAreas = make(map[string]*ServiceArea)
	}
}

// Validate reports input-shape violations. These are caller contract errors and
// surface immediately instead of producing partial statistics downstream.
func (c *CoverageData) Validate() error {
	if c == nil {
		return fmt.Errorf("nil coverage dataset")
	}
	if c.ProjectKey == "" {
		return fmt.Errorf("coverage dataset is missing project_key")
	}
	for id, du := range c.DeliveryUnits {
		if du == nil {
			return fmt.Errorf("project %s: delivery unit %q is null", c.ProjectKey, id)
		}
		if du.Buildings < 0 {
			return fmt.Errorf("project %s: delivery unit %q has negative building count %d", c.ProjectKey, id, du.Buildings)
		}
	}
	for id, sp := range c.ServicePoints {
		if sp == nil {
			return fmt.Errorf("project %s: service point %q is null", c.ProjectKey, id)
		}
	}
	return nil
}

// DayFloor normalizes a timestamp to its timezone-naive calendar date.
func DayFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from one date to another.
// Both arguments must already be day-floored.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// LatestVisitDate returns the most recent service-point visit date, or zero if
// no point carries one. It anchors the "last 7 days" accessors so that report
// runs are reproducible from their inputs rather than the wall clock.
func (c *CoverageData) LatestVisitDate() time.Time {
	var latest time.Time
	for _, sp := range c.ServicePoints {
		if sp.VisitDate != nil && sp.VisitDate.After(latest) {
			latest = *sp.VisitDate
		}
	}
	return latest
}

// ActiveFLWsLast7Days counts distinct field workers with at least one visit in
// the 7 calendar days ending at the dataset's latest visit date.
func (c *CoverageData) ActiveFLWsLast7Days() int {
	latest := c.LatestVisitDate()
	if latest.IsZero() {
		return 0
	}
	windowStart := DayFloor(latest).AddDate(0, 0, -6)

	active := make(map[string]bool)
	for _, sp := range c.ServicePoints {
		if sp.VisitDate == nil || sp.FLWID == "" {
			continue
		}
		if !DayFloor(*sp.VisitDate).Before(windowStart) {
			active[sp.FLWID] = true
		}
	}
	return len(active)
}

// AverageVisitsPerDay returns service-point visits per calendar day across the
// dataset's active visit span, rounded to one decimal.
func (c *CoverageData) AverageVisitsPerDay() float64 {
	var first, last time.Time
	total := 0
	for _, sp := range c.ServicePoints {
		if sp.VisitDate == nil {
			continue
		}
		d := DayFloor(*sp.VisitDate)
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
		total++
	}
	return perDayRate(total, first, last)
}

// AverageDUsPerDay returns qualifying delivery-unit completions per calendar day
// across the dataset's completion span, rounded to one decimal.
func (c *CoverageData) AverageDUsPerDay() float64 {
	var first, last time.Time
	total := 0
	for _, du := range c.DeliveryUnits {
		if du.Status != StatusCompleted || du.CompletionDate == nil || du.CompletionDate.IsZero() {
			continue
		}
		d := DayFloor(*du.CompletionDate)
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
		total++
	}
	return perDayRate(total, first, last)
}

func perDayRate(total int, first, last time.Time) float64 {
	if total == 0 {
		return 0
	}
	span := DaysBetween(first, last) + 1
	return math.Round(float64(total)/float64(span)*10) / 10
}
