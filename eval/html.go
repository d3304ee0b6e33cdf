// eval/html.go
package eval

import (
	"bytes"
	"encoding/json"
	"html/template"
	"os"
)

// ReportPageData feeds the standalone HTML dashboard template.
type ReportPageData struct {
	Title      string
	ReportJSON template.JS
}

// GenerateHTML renders a self-contained HTML dashboard for a report: stat
// cards, a reliability diagram, a confusion heatmap, per-class F1 bars, and
// the latency profile. The report is embedded as a JSON payload and drawn
// client-side with chart.js.
func GenerateHTML(r *EvaluationReport) (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	viewModel := ReportPageData{
		Title:      "foodbench: Evaluation Report",
		ReportJSON: template.JS(payload),
	}
	var buf bytes.Buffer
	if err := reportPageTemplate.Execute(&buf, viewModel); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteHTML writes the rendered dashboard to path.
func WriteHTML(path string, r *EvaluationReport) error {
	page, err := GenerateHTML(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(page), 0o644)
}

var reportPageTemplate = template.Must(template.New("evaluation-report").Parse(reportPageTemplateHTML))

const reportPageTemplateHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
  <style>
    :root {
      --primary: #334155;
      --accent: #3B82F6;
      --light: #F1F5F9;
      --background: #FFFFFF;
      --text: #0F172A;
      --border: #E2E8F0;
    }
    body {
      background-color: var(--light);
      color: var(--text);
    }
    .navbar-dark { background-color: var(--primary) !important; }
    .card {
      border: 1px solid var(--border);
      background-color: var(--background);
    }
    .stat-value { font-size: 1.8rem; font-weight: 700; }
    .stat-label { color: #64748B; font-size: 0.85rem; text-transform: uppercase; letter-spacing: 0.04em; }
    .chart-title { font-weight: 600; margin-bottom: 0.25rem; }
    .chart-subtitle { color: #64748B; font-size: 0.85rem; margin-bottom: 0.75rem; }
    .chart-canvas { position: relative; height: 320px; }
    .heatmap-table td, .heatmap-table th { text-align: center; min-width: 5rem; }
    .heatmap-cell { font-variant-numeric: tabular-nums; }
  </style>
</head>
<body>
  <nav class="navbar navbar-dark">
    <div class="container-fluid">
      <span class="navbar-brand mb-0 h1">{{ .Title }}</span>
      <span class="text-light small" id="runMeta"></span>
    </div>
  </nav>

  <main class="container my-4">
    <section class="row g-3" id="statCards"></section>

    <section class="row g-3 mt-1">
      <div class="col-lg-6">
        <div class="card shadow-sm">
          <div class="card-body">
            <div class="chart-title">Reliability Diagram</div>
            <div class="chart-subtitle">Per-bin mean confidence against empirical accuracy. A calibrated model tracks the diagonal.</div>
            <div class="chart-canvas"><canvas id="reliabilityChart" aria-label="Reliability diagram" role="img"></canvas></div>
          </div>
        </div>
      </div>
      <div class="col-lg-6">
        <div class="card shadow-sm">
          <div class="card-body">
            <div class="chart-title">Confusion Matrix</div>
            <div class="chart-subtitle">Rows are true classes; the unknown column holds below-threshold predictions.</div>
            <div class="table-responsive">
              <table class="table table-bordered heatmap-table" id="confusionTable"></table>
            </div>
          </div>
        </div>
      </div>
    </section>

    <section class="row g-3 mt-1">
      <div class="col-lg-6">
        <div class="card shadow-sm">
          <div class="card-body">
            <div class="chart-title">Per-Class F1</div>
            <div class="chart-subtitle">Precision and recall balance per class.</div>
            <div class="chart-canvas"><canvas id="f1Chart" aria-label="Per-class F1 chart" role="img"></canvas></div>
          </div>
        </div>
      </div>
      <div class="col-lg-6">
        <div class="card shadow-sm">
          <div class="card-body">
            <div class="chart-title">Latency Profile</div>
            <div class="chart-subtitle">Nearest-rank percentiles over per-image inference time.</div>
            <div class="chart-canvas"><canvas id="latencyChart" aria-label="Latency percentile chart" role="img"></canvas></div>
          </div>
        </div>
      </div>
    </section>
  </main>

  <script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.2/dist/chart.umd.min.js"></script>
  <script>
    var report = {{ .ReportJSON }};
  </script>
  <script>
    (function() {
      function pct(value) {
        return (Number(value) * 100).toFixed(1) + '%';
      }

      function statCard(label, value) {
        return '<div class="col-sm-6 col-lg-3">' +
          '<div class="card shadow-sm"><div class="card-body">' +
          '<div class="stat-label">' + label + '</div>' +
          '<div class="stat-value">' + value + '</div>' +
          '</div></div></div>';
      }

      var meta = [];
      if (report.run.model) { meta.push(report.run.model); }
      if (report.run.dataset) { meta.push(report.run.dataset); }
      meta.push(report.run.record_count + ' records');
      document.getElementById('runMeta').textContent = meta.join(' | ');

      document.getElementById('statCards').innerHTML =
        statCard('Accuracy', pct(report.accuracy)) +
        statCard('Macro F1', report.macro_f1.toFixed(4)) +
        statCard('ECE', report.ece.toFixed(4)) +
        statCard('p95 Latency', report.latency_percentiles.p95.toFixed(1) + ' ms');

      var bins = report.confidence_bins;
      var binLabels = bins.map(function(b) {
        return b.lower.toFixed(1) + '-' + b.upper.toFixed(1);
      });
      new Chart(document.getElementById('reliabilityChart'), {
        data: {
          labels: binLabels,
          datasets: [
            {
              type: 'bar',
              label: 'Accuracy',
              data: bins.map(function(b) { return b.count > 0 ? b.mean_accuracy : null; }),
              backgroundColor: 'rgba(59, 130, 246, 0.6)'
            },
            {
              type: 'line',
              label: 'Mean confidence',
              data: bins.map(function(b) { return b.count > 0 ? b.mean_confidence : null; }),
              borderColor: '#F59E0B',
              spanGaps: false
            }
          ]
        },
        options: {
          maintainAspectRatio: false,
          scales: { y: { min: 0, max: 1 } }
        }
      });

      var table = document.getElementById('confusionTable');
      var head = '<thead><tr><th>True \\ Predicted</th>';
      report.predicted_labels.forEach(function(p) { head += '<th>' + p + '</th>'; });
      head += '</tr></thead>';
      var body = '<tbody>';
      report.classes.forEach(function(t) {
        body += '<tr><th>' + t + '</th>';
        report.predicted_labels.forEach(function(p) {
          var share = report.normalized_confusion[t][p];
          body += '<td class="heatmap-cell" style="background-color: rgba(59, 130, 246, ' +
            (share * 0.85).toFixed(3) + ')">' + report.confusion_matrix[t][p] + '</td>';
        });
        body += '</tr>';
      });
      body += '</tbody>';
      table.innerHTML = head + body;

      new Chart(document.getElementById('f1Chart'), {
        type: 'bar',
        data: {
          labels: report.classes,
          datasets: [
            { label: 'Precision', data: report.classes.map(function(c) { return report.per_class[c].precision; }), backgroundColor: 'rgba(51, 65, 85, 0.7)' },
            { label: 'Recall', data: report.classes.map(function(c) { return report.per_class[c].recall; }), backgroundColor: 'rgba(245, 158, 11, 0.7)' },
            { label: 'F1', data: report.classes.map(function(c) { return report.per_class[c].f1; }), backgroundColor: 'rgba(59, 130, 246, 0.7)' }
          ]
        },
        options: {
          maintainAspectRatio: false,
          scales: { y: { min: 0, max: 1 } }
        }
      });

      new Chart(document.getElementById('latencyChart'), {
        type: 'bar',
        data: {
          labels: ['p50', 'p95', 'p99', 'mean', 'max'],
          datasets: [{
            label: 'Latency (ms)',
            data: [
              report.latency_percentiles.p50,
              report.latency_percentiles.p95,
              report.latency_percentiles.p99,
              report.latency_stats.mean,
              report.latency_stats.max
            ],
            backgroundColor: 'rgba(59, 130, 246, 0.6)'
          }]
        },
        options: {
          maintainAspectRatio: false,
          plugins: { legend: { display: false } }
        }
      });
    })();
  </script>
</body>
</html>
`
