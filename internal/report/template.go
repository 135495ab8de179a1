package report

// reportTemplate is the self-contained document shell. Everything the report
// needs ships inline except the Plotly runtime, which loads from its CDN.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <title>{{.Title}}</title>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <script src="https://cdn.plot.ly/plotly-latest.min.js"></script>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
        .container { max-width: 1400px; margin: 0 auto; background-color: white; padding: 20px; border-radius: 5px; box-shadow: 0 0 10px rgba(0,0,0,0.1); }
        h1, h2 { color: #333; border-bottom: 1px solid #ddd; padding-bottom: 10px; }
        .summary-stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 20px; margin: 20px 0; }
        .stat-card { background-color: #f8f9fa; padding: 15px; border-radius: 5px; text-align: center; border-left: 4px solid #4CAF50; }
        .stat-value { font-size: 2em; font-weight: bold; color: #4CAF50; }
        .stat-label { color: #666; margin-top: 5px; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { border: 1px solid #ddd; padding: 12px; text-align: left; }
        th { background-color: #f2f2f2; font-weight: bold; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .chart-grid { display: grid; grid-template-columns: 1fr 1fr; gap: 30px; margin: 20px 0; }
        .chart-item { background-color: white; padding: 15px; border-radius: 5px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .chart-title { font-size: 1.2em; font-weight: bold; margin-bottom: 15px; color: #333; }
        .timestamp { color: #777; font-size: 0.9em; margin-top: 30px; }
        .note { background-color: #e3f2fd; border: 1px solid #2196F3; color: #1565C0; padding: 10px; border-radius: 5px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>

        <div class="note">
            <strong>Note:</strong> {{.NoteText}}
        </div>

        <h2>Summary Statistics</h2>
        <div class="summary-stats">
            <div class="stat-card">
                <div class="stat-value">{{.Stats.ProjectCount}}</div>
                <div class="stat-label">Total Projects</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{.Stats.Summary.TotalDeliveryUnits}}</div>
                <div class="stat-label">Total Delivery Units</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{.Stats.Summary.TotalCompletedDUs}}</div>
                <div class="stat-label">Completed DUs</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{.Stats.Summary.TotalServiceAreas}}</div>
                <div class="stat-label">Total Service Areas</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{.Stats.Summary.TotalStartedSAs}}</div>
                <div class="stat-label">Started SAs</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{.Stats.Summary.TotalCompletedSAs}}</div>
                <div class="stat-label">Completed SAs</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{.Stats.Summary.TotalServicePoints}}</div>
                <div class="stat-label">Total Service Points</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{printf "%.1f" .Stats.Summary.AverageCoverage}}%</div>
                <div class="stat-label">Average Coverage</div>
            </div>
            <div class="stat-card">
                <div class="stat-value">{{.Stats.Summary.TotalFLWs}}</div>
                <div class="stat-label">Total FLWs</div>
            </div>
        </div>

        <h2>Project Comparison</h2>
        <table>
            <thead>
                <tr>
                    <th>Opportunity Name</th>
                    <th>Project Space</th>
                    <th>Total DUs</th>
                    <th>Completed DUs</th>
                    <th>DUs per Day</th>
                    <th>Service Points</th>
                    <th>Visits per Day</th>
                    <th>Total SAs</th>
                    <th>Started SAs</th>
                    <th>Completed SAs</th>
                    <th>FLWs</th>
                    <th>Active FLWs</th>
                    <th>Active FLWs %</th>
                    <th>Coverage %</th>
                </tr>
            </thead>
            <tbody>
{{- range .Rows}}
                <tr>
                    <td>{{.OpportunityName}}</td>
                    <td>{{.ProjectSpace}}</td>
                    <td>{{.DeliveryUnitsCount}}</td>
                    <td>{{.CompletedDUsCount}}</td>
                    <td>{{.DUsPerDay}}</td>
                    <td>{{.ServicePointsCount}}</td>
                    <td>{{.VisitsPerDay}}</td>
                    <td>{{.TotalServiceAreas}}</td>
                    <td>{{.StartedSAsCount}}</td>
                    <td>{{.CompletedSAsCount}}</td>
                    <td>{{.TotalFLWs}}</td>
                    <td>{{.ActiveFLWsLast7Days}}</td>
                    <td>{{printf "%.1f" .PctActiveFLWs}}%</td>
                    <td>{{printf "%.1f" .CoveragePct}}%</td>
                </tr>
{{- end}}
            </tbody>
        </table>

        <h2>Progress Comparison Charts</h2>

        <div class="chart-grid">
            <div class="chart-item">
                <div class="chart-title">Daily Service Deliveries</div>
                <div id="daily-service-chart" style="height: 400px;"></div>
            </div>
            <div class="chart-item">
                <div class="chart-title">Daily DU Completions</div>
                <div id="daily-du-chart" style="height: 400px;"></div>
            </div>
            <div class="chart-item">
                <div class="chart-title">Cumulative Service Deliveries</div>
                <div id="cumulative-service-chart" style="height: 400px;"></div>
            </div>
            <div class="chart-item">
                <div class="chart-title">Cumulative DU Completions</div>
                <div id="cumulative-du-chart" style="height: 400px;"></div>
            </div>
            <div class="chart-item">
                <div class="chart-title">FLWs clumping in trailing {{.LookbackDays}} days</div>
                <div id="flws-clumping-chart" style="height: 400px;"></div>
            </div>
        </div>

        <p class="timestamp">Generated on: {{.GeneratedAt}} &middot; Run {{.RunID}}</p>
    </div>

    <script id="progress-data" type="application/json">{{.PayloadJSON}}</script>
    <script>{{.ChartScript}}</script>
</body>
</html>
`

// chartScript renders the five Plotly traces from the embedded payload. It is
// minified through esbuild at render time.
const chartScript = `
const progressData = JSON.parse(document.getElementById('progress-data').textContent);
const colors = ['#1f77b4', '#ff7f0e', '#2ca02c', '#d62728', '#9467bd', '#8c564b', '#e377c2', '#7f7f7f', '#bcbd22', '#17becf'];

function drawChart(elementId, seriesMap, yTitle, field, mode) {
    const traces = [];
    let colorIndex = 0;

    for (const [opportunity, data] of Object.entries(seriesMap || {})) {
        if (data && data.length > 0) {
            traces.push({
                x: data.map(d => d.day),
                y: data.map(d => d[field]),
                type: 'scatter',
                mode: mode,
                name: opportunity,
                line: { color: colors[colorIndex % colors.length], width: mode === 'lines' ? 3 : 2 },
                marker: { size: 6 }
            });
            colorIndex++;
        }
    }

    const layout = {
        xaxis: { title: 'Days Since First Active Day' },
        yaxis: { title: yTitle },
        hovermode: 'x unified',
        showlegend: true,
        margin: { l: 50, r: 50, t: 30, b: 50 }
    };

    Plotly.newPlot(elementId, traces, layout, { responsive: true });
}

document.addEventListener('DOMContentLoaded', function () {
    drawChart('daily-service-chart', progressData.service_delivery_progress, 'Number of Service Deliveries', 'daily_count', 'lines+markers');
    drawChart('daily-du-chart', progressData.du_completion_progress, 'Number of DUs Completed', 'daily_count', 'lines+markers');
    drawChart('cumulative-service-chart', progressData.cumulative_service_delivery, 'Cumulative Service Deliveries', 'cumulative_count', 'lines');
    drawChart('cumulative-du-chart', progressData.cumulative_du_completion, 'Cumulative DUs Completed', 'cumulative_count', 'lines');
    drawChart('flws-clumping-chart', progressData.clumped_dus_progress, 'Number of Unique FLWs', 'unique_flws_count_in_lookback', 'lines+markers');
});
`
