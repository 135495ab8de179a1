package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"covreport/internal/coverage"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// projectProgress is the per-project intermediate before the display-name merge.
type projectProgress struct {
	opportunityName string
	service         []ProgressPoint
	completion      []ProgressPoint
	clumped         []ClumpedPoint
}

// BuildProgress converts event-level records into dense, gap-filled daily
// series per project, detects clumped delivery units and computes the
// trailing-window unique-worker counts.
//
// Projects are computed independently on a fan-out and merged in sorted
// project-key order, so the output is identical to a sequential run.
func BuildProgress(ctx context.Context, datasets map[string]*coverage.CoverageData, opts Options) (*ProgressData, error) {
	if opts.ClumpingRatio <= 0 {
		opts.ClumpingRatio = DefaultOptions().ClumpingRatio
	}
	if opts.LookbackDays < 1 {
		opts.LookbackDays = DefaultOptions().LookbackDays
	}

	keys := make([]string, 0, len(datasets))
	for key := range datasets {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	results := make([]projectProgress, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pp, err := buildProject(datasets[key], opts)
			if err != nil {
				return fmt.Errorf("project %s: %w", key, err)
			}
			results[i] = pp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	progress := &ProgressData{
		ServiceDelivery:           make(map[string][]ProgressPoint),
		DUCompletion:              make(map[string][]ProgressPoint),
		CumulativeServiceDelivery: make(map[string][]ProgressPoint),
		CumulativeDUCompletion:    make(map[string][]ProgressPoint),
		ClumpedDUs:                make(map[string][]ClumpedPoint),
	}

	// Series are keyed by opportunity display name because the chart traces are
	// labeled with it. Two projects sharing a name overwrite each other; the
	// later sorted project key wins.
	for i, pp := range results {
		if _, taken := progress.ServiceDelivery[pp.opportunityName]; taken {
			log.Warn().
				Str("opportunity", pp.opportunityName).
				Str("project", keys[i]).
				Msg("Opportunity name collision: earlier project's progress series will be overwritten")
		}
		if pp.service != nil {
			progress.ServiceDelivery[pp.opportunityName] = pp.service
			progress.CumulativeServiceDelivery[pp.opportunityName] = pp.service
		}
		if pp.completion != nil {
			progress.DUCompletion[pp.opportunityName] = pp.completion
			progress.CumulativeDUCompletion[pp.opportunityName] = pp.completion
		}
		if pp.clumped != nil {
			progress.ClumpedDUs[pp.opportunityName] = pp.clumped
		}
	}

	return progress, nil
}

func buildProject(data *coverage.CoverageData, opts Options) (projectProgress, error) {
	if err := data.Validate(); err != nil {
		return projectProgress{}, err
	}

	pp := projectProgress{opportunityName: data.OpportunityName}

	// 1. Bucket service-point visits by calendar date.
	visitsByDay := make(map[time.Time]int)
	for _, sp := range data.ServicePoints {
		if sp.VisitDate == nil || sp.VisitDate.IsZero() {
			continue
		}
		visitsByDay[coverage.DayFloor(*sp.VisitDate)]++
	}

	// 2. Bucket qualifying completions and detect clumped units. A completed
	// unit without a valid completion timestamp contributes to no series; a
	// fabricated "today" would distort every downstream offset.
	completionsByDay := make(map[time.Time]int)
	clumpedByDay := make(map[time.Time][]ClumpedDU)
	for _, du := range data.DeliveryUnits {
		if du.Status != coverage.StatusCompleted {
			continue
		}
		if du.CompletionDate == nil || du.CompletionDate.IsZero() {
			log.Debug().
				Str("project", data.ProjectKey).
				Str("du", du.ID).
				Msg("Completed delivery unit has no completion date, excluded from progress series")
			continue
		}
		day := coverage.DayFloor(*du.CompletionDate)
		completionsByDay[day]++

		if isClumped(len(du.ServicePoints), du.Buildings, opts.ClumpingRatio) {
			clumpedByDay[day] = append(clumpedByDay[day], ClumpedDU{
				DUID:           du.ID,
				DUName:         du.Name,
				FLWID:          du.FLWID,
				ServicePoints:  len(du.ServicePoints),
				Buildings:      du.Buildings,
				CompletionDate: day.Format("2006-01-02"),
			})
		}
	}
	for _, dus := range clumpedByDay {
		sort.Slice(dus, func(i, j int) bool { return dus[i].DUID < dus[j].DUID })
	}

	// 3. Dense date-range fill. Empty series are omitted outright.
	if len(visitsByDay) > 0 {
		first, last := dayRange(visitsByDay)
		pp.service = densePoints(visitsByDay, first, last)
	}

	var firstCompletion time.Time
	if len(completionsByDay) > 0 {
		var last time.Time
		firstCompletion, last = dayRange(completionsByDay)
		pp.completion = densePoints(completionsByDay, firstCompletion, last)
	}

	// The clumped series shares the completion series' anchor so both sets of
	// day offsets are directly comparable.
	if len(clumpedByDay) > 0 {
		lastClumped := firstCompletion
		for day := range clumpedByDay {
			if day.After(lastClumped) {
				lastClumped = day
			}
		}
		pp.clumped = clumpedSeries(data, clumpedByDay, firstCompletion, lastClumped, opts.LookbackDays)
	}

	return pp, nil
}

// isClumped applies the ratio threshold (strictly greater). A unit with zero
// recorded buildings is clumped whenever it has any service points at all:
// visit concentration over no buildings is anomalous by definition, and the
// ratio is never actually divided.
func isClumped(servicePoints, buildings int, ratio float64) bool {
	if buildings == 0 {
		return servicePoints > 0
	}
	return float64(servicePoints)/float64(buildings) > ratio
}

// dayRange returns the earliest and latest bucketed dates.
func dayRange(byDay map[time.Time]int) (first, last time.Time) {
	for day := range byDay {
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
	}
	return first, last
}

// densePoints walks every calendar day in [first, last] inclusive. Days with no
// events get a zero daily count while the cumulative count carries forward.
func densePoints(byDay map[time.Time]int, first, last time.Time) []ProgressPoint {
	var points []ProgressPoint
	cumulative := 0
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		daily := byDay[day]
		cumulative += daily
		points = append(points, ProgressPoint{
			Day:             coverage.DaysBetween(first, day),
			DailyCount:      daily,
			CumulativeCount: cumulative,
		})
	}
	return points
}

func clumpedSeries(data *coverage.CoverageData, clumpedByDay map[time.Time][]ClumpedDU, anchor, last time.Time, lookbackDays int) []ClumpedPoint {
	var points []ClumpedPoint
	cumulative := 0
	for day := anchor; !day.After(last); day = day.AddDate(0, 0, 1) {
		daily := clumpedByDay[day]
		cumulative += len(daily)

		flws := lookbackFLWs(data, clumpedByDay, day, lookbackDays)

		if daily == nil {
			daily = []ClumpedDU{}
		}
		points = append(points, ClumpedPoint{
			Day:             coverage.DaysBetween(anchor, day),
			DailyCount:      len(daily),
			CumulativeCount: cumulative,
			ClumpedDUs:      daily,
			UniqueFLWs:      flws,
			UniqueFLWCount:  len(flws),
		})
	}
	return points
}

// lookbackFLWs collects the distinct field workers who completed clumped units
// in the trailing window [day-(lookbackDays-1), day]. A clumped unit whose
// worker reference has no entry in the field-worker map is skipped with a
// warning rather than failing the whole report over one dirty row.
func lookbackFLWs(data *coverage.CoverageData, clumpedByDay map[time.Time][]ClumpedDU, day time.Time, lookbackDays int) []string {
	unique := make(map[string]bool)
	start := day.AddDate(0, 0, -(lookbackDays - 1))
	for check := start; !check.After(day); check = check.AddDate(0, 0, 1) {
		for _, cdu := range clumpedByDay[check] {
			flw, ok := data.FieldWorkers[cdu.FLWID]
			if !ok {
				log.Warn().
					Str("project", data.ProjectKey).
					Str("du", cdu.DUID).
					Str("flw", cdu.FLWID).
					Msg("Clumped delivery unit references unknown field worker, skipped in lookback count")
				continue
			}
			unique[flw.ID] = true
		}
	}

	flws := make([]string, 0, len(unique))
	for id := range unique {
		flws = append(flws, id)
	}
	sort.Strings(flws)
	return flws
}
