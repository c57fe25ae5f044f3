package output

import (
	"strconv"
	"time"

	"github.com/complykit/screendiff/internal/config"
	"github.com/complykit/screendiff/pkg/screening"
)

// SourceRow is the JSON/YAML shape of one configured source.
type SourceRow struct {
	ID         string `json:"id" yaml:"id"`
	Endpoint   string `json:"endpoint" yaml:"endpoint"`
	Auth       string `json:"auth" yaml:"auth"`
	Configured bool   `json:"configured" yaml:"configured"`
}

// SourceRows shapes the configured sources for output, in file order.
func SourceRows(cfg *config.Config) []SourceRow {
	rows := make([]SourceRow, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		scheme := sc.Auth.Scheme
		if scheme == "" {
			scheme = config.AuthNone
		}
		rows = append(rows, SourceRow{
			ID:         sc.ID.String(),
			Endpoint:   sc.Endpoint,
			Auth:       string(scheme),
			Configured: sc.Configured(),
		})
	}
	return rows
}

// SourcesToTableData shapes source rows for table rendering.
func SourcesToTableData(rows []SourceRow) Data {
	data := Data{Headers: []string{"ID", "Endpoint", "Auth", "Configured"}}
	for _, r := range rows {
		configured := "no"
		if r.Configured {
			configured = "yes"
		}
		data.Rows = append(data.Rows, []string{r.ID, r.Endpoint, r.Auth, configured})
	}
	return data
}

// RunSummary is the JSON/YAML shape of one run's per-source totals.
type RunSummary struct {
	Names   int                `json:"names" yaml:"names"`
	Sources []RunSourceSummary `json:"sources" yaml:"sources"`
}

// RunSourceSummary aggregates one source across a run.
type RunSourceSummary struct {
	ID       string        `json:"id" yaml:"id"`
	Matches  int           `json:"matches" yaml:"matches"`
	Failures int           `json:"failures" yaml:"failures"`
	Elapsed  time.Duration `json:"elapsed" yaml:"elapsed"`
}

// Summarize aggregates a finished run by source.
func Summarize(order []screening.SourceID, results []*screening.QueryResult) RunSummary {
	summary := RunSummary{Names: len(results)}
	for _, sid := range order {
		s := RunSourceSummary{ID: sid.String()}
		for _, q := range results {
			s.Matches += len(q.Matches(sid))
			s.Elapsed += q.Durations[sid]
			if q.Failed(sid) {
				s.Failures++
			}
		}
		summary.Sources = append(summary.Sources, s)
	}
	return summary
}

// SummaryToTableData shapes a run summary for table rendering.
func SummaryToTableData(summary RunSummary) Data {
	data := Data{
		Headers:      []string{"Source", "Matches", "Failures", "Elapsed"},
		RightAligned: []int{1, 2, 3},
	}
	for _, s := range summary.Sources {
		data.Rows = append(data.Rows, []string{
			s.ID,
			strconv.Itoa(s.Matches),
			strconv.Itoa(s.Failures),
			s.Elapsed.Round(time.Millisecond).String(),
		})
	}
	return data
}
