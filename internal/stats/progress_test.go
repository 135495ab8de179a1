package stats

import (
	"context"
	"testing"

	"covreport/internal/coverage"
)

// clumpedUnit builds a delivery unit whose service-point count and building
// count put it over (or under) the default clumping threshold.
func clumpedUnit(id, completion, flw string, points, buildings int) *coverage.DeliveryUnit {
	sps := make([]string, points)
	for i := range sps {
		sps[i] = id + "-sp"
	}
	return &coverage.DeliveryUnit{
		ID:             id,
		Status:         coverage.StatusCompleted,
		CompletionDate: datePtr(completion),
		ServicePoints:  sps,
		Buildings:      buildings,
		FLWID:          flw,
	}
}

func build(t *testing.T, datasets map[string]*coverage.CoverageData, opts Options) *ProgressData {
	t.Helper()
	progress, err := BuildProgress(context.Background(), datasets, opts)
	if err != nil {
		t.Fatalf("BuildProgress failed: %v", err)
	}
	return progress
}

func TestBuildProgress_DenseDateRangeFill(t *testing.T) {
	data := newDataset("p")
	data.OpportunityName = "Proj"
	data.ServicePoints = map[string]*coverage.ServicePoint{
		"sp1": {ID: "sp1", VisitDate: datePtr("2024-03-01")},
		"sp2": {ID: "sp2", VisitDate: datePtr("2024-03-01")},
		"sp3": {ID: "sp3", VisitDate: datePtr("2024-03-04")},
	}

	progress := build(t, map[string]*coverage.CoverageData{"p": data}, DefaultOptions())

	series := progress.ServiceDelivery["Proj"]
	if len(series) != 4 {
		t.Fatalf("Expected 4 days (03-01..03-04 inclusive), got %d", len(series))
	}

	// Gap days get zero daily counts; cumulative carries forward.
	expected := []ProgressPoint{
		{Day: 0, DailyCount: 2, CumulativeCount: 2},
		{Day: 1, DailyCount: 0, CumulativeCount: 2},
		{Day: 2, DailyCount: 0, CumulativeCount: 2},
		{Day: 3, DailyCount: 1, CumulativeCount: 3},
	}
	for i, want := range expected {
		if series[i] != want {
			t.Errorf("Day %d: expected %+v, got %+v", i, want, series[i])
		}
	}

	// Cumulative at the last day equals the sum of all daily counts, and is
	// monotonically non-decreasing.
	total := 0
	for i, p := range series {
		total += p.DailyCount
		if i > 0 && p.CumulativeCount < series[i-1].CumulativeCount {
			t.Errorf("Cumulative count decreased at day %d", p.Day)
		}
	}
	if series[len(series)-1].CumulativeCount != total {
		t.Errorf("Final cumulative %d != sum of daily counts %d", series[len(series)-1].CumulativeCount, total)
	}

	// Daily and cumulative maps share the same series.
	if len(progress.CumulativeServiceDelivery["Proj"]) != len(series) {
		t.Error("Cumulative map should carry the same series as the daily map")
	}
}

func TestBuildProgress_CompletedWithoutDateExcluded(t *testing.T) {
	data := newDataset("p")
	data.OpportunityName = "Proj"
	data.DeliveryUnits = map[string]*coverage.DeliveryUnit{
		"du1": {ID: "du1", Status: coverage.StatusCompleted}, // no completion date
	}

	progress := build(t, map[string]*coverage.CoverageData{"p": data}, DefaultOptions())

	if _, ok := progress.DUCompletion["Proj"]; ok {
		t.Error("A completed DU without a completion date must contribute to no series")
	}
	if _, ok := progress.ClumpedDUs["Proj"]; ok {
		t.Error("A completed DU without a completion date must not appear in the clumped series")
	}
}

func TestBuildProgress_EmptySeriesOmitted(t *testing.T) {
	data := newDataset("p")
	data.OpportunityName = "Proj"
	data.ServicePoints = map[string]*coverage.ServicePoint{
		"sp1": {ID: "sp1", VisitDate: datePtr("2024-03-01")},
	}

	progress := build(t, map[string]*coverage.CoverageData{"p": data}, DefaultOptions())

	if _, ok := progress.ServiceDelivery["Proj"]; !ok {
		t.Error("Expected service delivery series")
	}
	if _, ok := progress.DUCompletion["Proj"]; ok {
		t.Error("Expected no DU completion series when no completions exist")
	}
}

func TestBuildProgress_ClumpingThresholdIsStrict(t *testing.T) {
	data := newDataset("p")
	data.OpportunityName = "Proj"
	data.FieldWorkers = map[string]*coverage.FieldWorker{"w1": {ID: "w1"}}
	data.DeliveryUnits = map[string]*coverage.DeliveryUnit{
		"over":  clumpedUnit("over", "2024-03-01", "w1", 11, 1), // 11/1 > 10 -> clumped
		"exact": clumpedUnit("exact", "2024-03-01", "w1", 10, 1), // 10/1 == 10 -> not clumped
	}

	progress := build(t, map[string]*coverage.CoverageData{"p": data}, DefaultOptions())

	series := progress.ClumpedDUs["Proj"]
	if len(series) != 1 {
		t.Fatalf("Expected a single clumped day, got %d", len(series))
	}
	if series[0].DailyCount != 1 {
		t.Fatalf("Expected exactly 1 clumped DU, got %d", series[0].DailyCount)
	}
	if series[0].ClumpedDUs[0].DUID != "over" {
		t.Errorf("Expected the 11/1 unit to be clumped, got %q", series[0].ClumpedDUs[0].DUID)
	}
}

func TestBuildProgress_ZeroBuildingsPolicy(t *testing.T) {
	data := newDataset("p")
	data.OpportunityName = "Proj"
	data.FieldWorkers = map[string]*coverage.FieldWorker{"w1": {ID: "w1"}}
	data.DeliveryUnits = map[string]*coverage.DeliveryUnit{
		"visited":   clumpedUnit("visited", "2024-03-01", "w1", 1, 0), // points over zero buildings -> clumped
		"untouched": clumpedUnit("untouched", "2024-03-01", "w1", 0, 0),
	}

	progress := build(t, map[string]*coverage.CoverageData{"p": data}, DefaultOptions())

	series := progress.ClumpedDUs["Proj"]
	if len(series) != 1 || series[0].DailyCount != 1 {
		t.Fatalf("Expected exactly one clumped DU, got %+v", series)
	}
	if series[0].ClumpedDUs[0].DUID != "visited" {
		t.Errorf("Expected the zero-building unit with visits to be clumped, got %q", series[0].ClumpedDUs[0].DUID)
	}
}

func TestBuildProgress_LookbackWindow(t *testing.T) {
	data := newDataset("p")
	data.OpportunityName = "Proj"
	data.FieldWorkers = map[string]*coverage.FieldWorker{
		"w1": {ID: "w1"}, "w2": {ID: "w2"},
	}
	// Clumped completions: w1 on day 0 (03-01), w2 on day 2 (03-03), and a
	// plain completion on day 4 (03-05) to extend the completion range.
	data.DeliveryUnits = map[string]*coverage.DeliveryUnit{
		"du1": clumpedUnit("du1", "2024-03-01", "w1", 20, 1),
		"du2": clumpedUnit("du2", "2024-03-03", "w2", 20, 1),
		"du3": clumpedUnit("du3", "2024-03-05", "w2", 20, 1),
	}

	progress := build(t, map[string]*coverage.CoverageData{"p": data}, Options{ClumpingRatio: 10.0, LookbackDays: 3})

	series := progress.ClumpedDUs["Proj"]
	if len(series) != 5 {
		t.Fatalf("Expected 5 days in the clumped series, got %d", len(series))
	}

	// Day 2: window [day 0, day 2] includes both workers.
	if series[2].UniqueFLWCount != 2 {
		t.Errorf("Day 2: expected 2 unique workers, got %d (%v)", series[2].UniqueFLWCount, series[2].UniqueFLWs)
	}

	// Day 4: window [day 2, day 4] excludes w1's day-0 event.
	if series[4].UniqueFLWCount != 1 {
		t.Errorf("Day 4: expected 1 unique worker, got %d (%v)", series[4].UniqueFLWCount, series[4].UniqueFLWs)
	}
	if len(series[4].UniqueFLWs) != 1 || series[4].UniqueFLWs[0] != "w2" {
		t.Errorf("Day 4: expected only w2 in the window, got %v", series[4].UniqueFLWs)
	}
}

func TestBuildProgress_ClumpedSeriesAnchoredToFirstCompletion(t *testing.T) {
	data := newDataset("p")
	data.OpportunityName = "Proj"
	data.FieldWorkers = map[string]*coverage.FieldWorker{"w1": {ID: "w1"}}
	data.DeliveryUnits = map[string]*coverage.DeliveryUnit{
		// Plain completion on 03-01, first clumped completion on 03-03.
		"plain":   clumpedUnit("plain", "2024-03-01", "w1", 1, 1),
		"clumped": clumpedUnit("clumped", "2024-03-03", "w1", 20, 1),
	}

	progress := build(t, map[string]*coverage.CoverageData{"p": data}, DefaultOptions())

	series := progress.ClumpedDUs["Proj"]
	if len(series) != 3 {
		t.Fatalf("Expected clumped series to start at the first completion date (3 days), got %d", len(series))
	}
	if series[0].Day != 0 || series[0].DailyCount != 0 {
		t.Errorf("Day 0 should be an empty anchor day, got %+v", series[0])
	}
	if series[2].DailyCount != 1 {
		t.Errorf("Expected the clumped unit on day 2, got %+v", series[2])
	}
}

func TestBuildProgress_UnknownFieldWorkerSkipped(t *testing.T) {
	data := newDataset("p")
	data.OpportunityName = "Proj"
	data.FieldWorkers = map[string]*coverage.FieldWorker{"w1": {ID: "w1"}}
	data.DeliveryUnits = map[string]*coverage.DeliveryUnit{
		"du1": clumpedUnit("du1", "2024-03-01", "w1", 20, 1),
		"du2": clumpedUnit("du2", "2024-03-01", "ghost", 20, 1),
	}

	progress := build(t, map[string]*coverage.CoverageData{"p": data}, DefaultOptions())

	series := progress.ClumpedDUs["Proj"]
	if series[0].DailyCount != 2 {
		t.Fatalf("Both units are clumped regardless of worker resolution, got %d", series[0].DailyCount)
	}
	if series[0].UniqueFLWCount != 1 {
		t.Errorf("Unresolvable worker reference must be skipped, expected 1 unique worker, got %d", series[0].UniqueFLWCount)
	}
}

func TestBuildProgress_DisplayNameCollisionOverwrites(t *testing.T) {
	a := newDataset("a")
	a.OpportunityName = "Same Name"
	a.ServicePoints = map[string]*coverage.ServicePoint{
		"sp1": {ID: "sp1", VisitDate: datePtr("2024-03-01")},
	}

	b := newDataset("b")
	b.OpportunityName = "Same Name"
	b.ServicePoints = map[string]*coverage.ServicePoint{
		"sp1": {ID: "sp1", VisitDate: datePtr("2024-03-01")},
		"sp2": {ID: "sp2", VisitDate: datePtr("2024-03-01")},
	}

	progress := build(t, map[string]*coverage.CoverageData{"a": a, "b": b}, DefaultOptions())

	if len(progress.ServiceDelivery) != 1 {
		t.Fatalf("Expected a single colliding entry, got %d", len(progress.ServiceDelivery))
	}
	// Projects merge in sorted key order, so "b" wins.
	series := progress.ServiceDelivery["Same Name"]
	if series[0].DailyCount != 2 {
		t.Errorf("Expected the later sorted project to overwrite, got daily count %d", series[0].DailyCount)
	}
}

func TestBuildProgress_EmptyInput(t *testing.T) {
	progress := build(t, map[string]*coverage.CoverageData{}, DefaultOptions())
	if len(progress.ServiceDelivery) != 0 || len(progress.ClumpedDUs) != 0 {
		t.Error("Expected empty progress data for empty input")
	}
}

func TestBuildProgress_NilDatasetFailsFast(t *testing.T) {
	_, err := BuildProgress(context.Background(), map[string]*coverage.CoverageData{"broken": nil}, DefaultOptions())
	if err == nil {
		t.Error("Expected a descriptive error for a nil dataset")
	}
}
