package stats

import (
	"testing"
	"time"

	"covreport/internal/coverage"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	d := date(s)
	return &d
}

func newDataset(key string) *coverage.CoverageData {
	data := &coverage.CoverageData{ProjectKey: key}
	data.Normalize()
	return data
}

func TestSummarize_ZeroDeliveryUnits(t *testing.T) {
	datasets := map[string]*coverage.CoverageData{"empty": newDataset("empty")}

	stats := Summarize(datasets)

	ps := stats.Projects["empty"]
	if ps.CoveragePct != 0.0 {
		t.Errorf("Expected coverage 0.0 for zero DUs, got %v", ps.CoveragePct)
	}
	if ps.PctActiveFLWs != 0.0 {
		t.Errorf("Expected active FLW pct 0.0 for zero FLWs, got %v", ps.PctActiveFLWs)
	}
}

func TestSummarize_PerProjectCounts(t *testing.T) {
	data := newDataset("p1")
	data.OpportunityName = "Project One"
	data.ProjectSpace = "space-1"
	data.DeliveryUnits = map[string]*coverage.DeliveryUnit{
		"du1": {ID: "du1", Status: coverage.StatusCompleted, CompletionDate: datePtr("2024-03-01")},
		"du2": {ID: "du2", Status: coverage.StatusCompleted}, // no date, still counts as completed here
		"du3": {ID: "du3", Status: "in_progress"},
		"du4": {ID: "du4", Status: "unvisited"},
	}
	data.ServiceAreas = map[string]*coverage.ServiceArea{
		"sa1": {ID: "sa1", IsStarted: true},
		"sa2": {ID: "sa2", IsStarted: true, IsCompleted: true},
		"sa3": {ID: "sa3"},
	}
	data.FieldWorkers = map[string]*coverage.FieldWorker{
		"w1": {ID: "w1"}, "w2": {ID: "w2"},
	}

	stats := Summarize(map[string]*coverage.CoverageData{"p1": data})
	ps := stats.Projects["p1"]

	if ps.DeliveryUnitsCount != 4 || ps.CompletedDUsCount != 2 {
		t.Errorf("DU counts mismatch: total=%d completed=%d", ps.DeliveryUnitsCount, ps.CompletedDUsCount)
	}
	if ps.CoveragePct != 50.0 {
		t.Errorf("Expected coverage 50.0, got %v", ps.CoveragePct)
	}
	if ps.TotalServiceAreas != 3 || ps.StartedSAsCount != 2 || ps.CompletedSAsCount != 1 {
		t.Errorf("SA counts mismatch: %d/%d/%d", ps.TotalServiceAreas, ps.StartedSAsCount, ps.CompletedSAsCount)
	}
	if ps.OpportunityName != "Project One" || ps.ProjectSpace != "space-1" {
		t.Errorf("Display fields mismatch: %q %q", ps.OpportunityName, ps.ProjectSpace)
	}
}

func TestSummarize_CrossProjectSums(t *testing.T) {
	p1 := newDataset("p1")
	p1.DeliveryUnits = map[string]*coverage.DeliveryUnit{
		"a": {ID: "a", Status: coverage.StatusCompleted},
		"b": {ID: "b", Status: "in_progress"},
	}
	p1.FieldWorkers = map[string]*coverage.FieldWorker{"w1": {ID: "w1"}}

	p2 := newDataset("p2")
	p2.DeliveryUnits = map[string]*coverage.DeliveryUnit{
		"c": {ID: "c", Status: coverage.StatusCompleted},
	}
	p2.ServicePoints = map[string]*coverage.ServicePoint{"sp1": {ID: "sp1"}}

	stats := Summarize(map[string]*coverage.CoverageData{"p1": p1, "p2": p2})

	sum := stats.Summary
	if sum.TotalDeliveryUnits != 3 || sum.TotalCompletedDUs != 2 {
		t.Errorf("DU sums mismatch: total=%d completed=%d", sum.TotalDeliveryUnits, sum.TotalCompletedDUs)
	}
	if sum.TotalServicePoints != 1 || sum.TotalFLWs != 1 {
		t.Errorf("SP/FLW sums mismatch: %d/%d", sum.TotalServicePoints, sum.TotalFLWs)
	}
}

func TestSummarize_AverageCoverageIsUnweighted(t *testing.T) {
	// A tiny fully-covered project and a large uncovered one. A DU-weighted
	// average would be ~1%; the unweighted mean must be 50%.
	small := newDataset("small")
	small.DeliveryUnits = map[string]*coverage.DeliveryUnit{
		"a": {ID: "a", Status: coverage.StatusCompleted},
	}

	large := newDataset("large")
	large.DeliveryUnits = make(map[string]*coverage.DeliveryUnit)
	for i := 0; i < 99; i++ {
		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		large.DeliveryUnits[id] = &coverage.DeliveryUnit{ID: id, Status: "in_progress"}
	}

	stats := Summarize(map[string]*coverage.CoverageData{"small": small, "large": large})

	if stats.Summary.AverageCoverage != 50.0 {
		t.Errorf("Expected unweighted average coverage 50.0, got %v", stats.Summary.AverageCoverage)
	}
}

func TestSummarize_EmptyInput(t *testing.T) {
	stats := Summarize(map[string]*coverage.CoverageData{})
	if stats.ProjectCount != 0 {
		t.Errorf("Expected 0 projects, got %d", stats.ProjectCount)
	}
	if stats.Summary.AverageCoverage != 0.0 {
		t.Errorf("Expected average coverage 0.0 for empty input, got %v", stats.Summary.AverageCoverage)
	}
}
