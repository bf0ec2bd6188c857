package report

// htmlTemplate renders the stakeholder-facing HTML report.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Campaign Performance Report</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2933; }
  h1 { border-bottom: 2px solid #2563eb; padding-bottom: 0.4rem; }
  h2 { margin-top: 2rem; color: #2563eb; }
  table { border-collapse: collapse; width: 100%; margin-top: 0.8rem; }
  th, td { border: 1px solid #d1d5db; padding: 0.45rem 0.7rem; text-align: left; }
  th { background: #eff6ff; }
  .kpi { display: inline-block; margin-right: 2.2rem; }
  .kpi .value { font-size: 1.6rem; font-weight: 600; }
  .status-excellent { color: #059669; font-weight: 600; }
  .status-good { color: #2563eb; }
  .status-fair { color: #d97706; }
  .status-needs_attention { color: #dc2626; font-weight: 600; }
  .meta { color: #6b7280; font-size: 0.85rem; }
</style>
</head>
<body>
<h1>Campaign Performance Report</h1>
<p class="meta">Generated {{.GeneratedAt}} &middot; Period {{.PeriodStart}} &ndash; {{.PeriodEnd}}</p>

<h2>Executive Summary</h2>
<p>{{.Summary}}</p>

<h2>Key Metrics</h2>
<div>
  <span class="kpi"><span class="value">{{.TotalCampaigns}}</span><br>Campaigns</span>
  <span class="kpi"><span class="value">${{printf "%.2f" .TotalSpend}}</span><br>Spend</span>
  <span class="kpi"><span class="value">{{printf "%.2f" .AvgROAS}}</span><br>Avg ROAS</span>
  <span class="kpi"><span class="value">{{printf "%.2f" .AvgCTR}}%</span><br>Avg CTR</span>
</div>

{{if .Recommendations}}
<h2>Recommendations</h2>
<ul>
{{range .Recommendations}}  <li>{{.}}</li>
{{end}}</ul>
{{end}}

{{if .Patterns}}
<h2>Patterns</h2>
<ul>
{{range .Patterns}}  <li>{{.}}</li>
{{end}}</ul>
{{end}}

<h2>Recent Campaigns</h2>
<table>
<tr><th>Campaign</th><th>Platform</th><th>CTR</th><th>ROAS</th><th>Spend</th><th>Status</th></tr>
{{range .Campaigns}}<tr>
  <td>{{.CampaignID}}</td><td>{{.Platform}}</td><td>{{.CTR}}</td><td>{{.ROAS}}</td><td>{{.Spend}}</td>
  <td class="status-{{.Status}}">{{.Status}}</td>
</tr>
{{end}}</table>

{{if .TopPerformer}}
<h2>Top Performer</h2>
<p>{{.TopPerformer}}</p>
{{end}}

{{if .Allocations}}
<h2>Budget Reallocation (total ${{printf "%.2f" .TotalBudget}})</h2>
<table>
<tr><th>Campaign</th><th>Current</th><th>Recommended</th><th>Change</th><th>Score</th></tr>
{{range .Allocations}}<tr>
  <td>{{.CampaignID}}</td><td>${{printf "%.2f" .Current}}</td><td>${{printf "%.2f" .Recommended}}</td>
  <td>{{printf "%+.2f" .Change}}</td><td>{{printf "%.2f" .Score}}</td>
</tr>
{{end}}</table>
{{end}}

<h2>Ad Copy Suggestions ({{.AdPlatform}})</h2>
<h3>Headlines</h3>
<ul>{{range .AdSuggestions.Headlines}}<li>{{.}}</li>{{end}}</ul>
<h3>Descriptions</h3>
<ul>{{range .AdSuggestions.Descriptions}}<li>{{.}}</li>{{end}}</ul>
<h3>Calls to Action</h3>
<ul>{{range .AdSuggestions.CTAs}}<li>{{.}}</li>{{end}}</ul>

</body>
</html>
`
