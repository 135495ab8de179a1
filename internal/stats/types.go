package stats

// ProjectStats holds the per-project scalar statistics rendered in the
// comparison table.
type ProjectStats struct {
	OpportunityName     string  `json:"opportunity_name"`
	ProjectSpace        string  `json:"project_space"`
	DeliveryUnitsCount  int     `json:"delivery_units_count"`
	CompletedDUsCount   int     `json:"completed_dus_count"`
	DUsPerDay           float64 `json:"dus_per_day"`
	ServicePointsCount  int     `json:"service_points_count"`
	VisitsPerDay        float64 `json:"visits_per_day"`
	TotalFLWs           int     `json:"total_flws"`
	ActiveFLWsLast7Days int     `json:"active_flw_last7days"`
	PctActiveFLWs       float64 `json:"pct_active_flw_last7days"`
	TotalServiceAreas   int     `json:"total_service_areas"`
	StartedSAsCount     int     `json:"started_sas_count"`
	CompletedSAsCount   int     `json:"completed_sas_count"`
	CoveragePct         float64 `json:"coverage_percentage"`
}

// SummaryComparisons aggregates counts across all projects. AverageCoverage is
// the unweighted arithmetic mean of the per-project coverage percentages, not a
// DU-weighted figure.
type SummaryComparisons struct {
	TotalDeliveryUnits int     `json:"total_delivery_units"`
	TotalServicePoints int     `json:"total_service_points"`
	TotalCompletedDUs  int     `json:"total_completed_dus"`
	TotalServiceAreas  int     `json:"total_service_areas"`
	TotalStartedSAs    int     `json:"total_started_sas"`
	TotalCompletedSAs  int     `json:"total_completed_sas"`
	AverageCoverage    float64 `json:"average_coverage"`
	TotalFLWs          int     `json:"total_flws"`
}

// ComparisonStats is the Summary Aggregator output.
type ComparisonStats struct {
	ProjectCount int                     `json:"project_count"`
	Projects     map[string]ProjectStats `json:"projects"`
	Summary      SummaryComparisons      `json:"summary_comparisons"`
}

// ProgressPoint is one day in a dense, gap-filled daily series.
type ProgressPoint struct {
	Day             int `json:"day"`
	DailyCount      int `json:"daily_count"`
	CumulativeCount int `json:"cumulative_count"`
}

// ClumpedDU identifies a delivery unit whose service-point-to-building ratio
// exceeded the clumping threshold on its completion day.
type ClumpedDU struct {
	DUID           string `json:"du_id"`
	DUName         string `json:"du_name,omitempty"`
	FLWID          string `json:"flw_id,omitempty"`
	ServicePoints  int    `json:"service_points"`
	Buildings      int    `json:"buildings"`
	CompletionDate string `json:"completion_date"`
}

// ClumpedPoint extends ProgressPoint with the day's clumped units and the
// trailing-window distinct-worker tally.
type ClumpedPoint struct {
	Day             int         `json:"day"`
	DailyCount      int         `json:"daily_count"`
	CumulativeCount int         `json:"cumulative_count"`
	ClumpedDUs      []ClumpedDU `json:"clumped_dus"`
	UniqueFLWs      []string    `json:"unique_flws_in_lookback"`
	UniqueFLWCount  int         `json:"unique_flws_count_in_lookback"`
}

// ProgressData carries the five chart series, keyed by opportunity display name.
// The daily and cumulative maps for the same measure share the same point
// slices; each point carries both counts.
type ProgressData struct {
	ServiceDelivery           map[string][]ProgressPoint `json:"service_delivery_progress"`
	DUCompletion              map[string][]ProgressPoint `json:"du_completion_progress"`
	CumulativeServiceDelivery map[string][]ProgressPoint `json:"cumulative_service_delivery"`
	CumulativeDUCompletion    map[string][]ProgressPoint `json:"cumulative_du_completion"`
	ClumpedDUs                map[string][]ClumpedPoint  `json:"clumped_dus_progress"`
}

// Options are the Progress Series Builder tunables.
type Options struct {
	ClumpingRatio float64
	LookbackDays  int
}

// DefaultOptions mirrors the source system's defaults.
func DefaultOptions() Options {
	return Options{ClumpingRatio: 10.0, LookbackDays: 10}
}
