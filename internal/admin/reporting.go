package admin

import (
	"context"
	"database/sql"

	"github.com/mimakeko/homehealth-assistant/pkg/logging"
)

// VolumeRow is one day+direction bucket of message traffic.
type VolumeRow struct {
	Day       string `json:"day"`
	Direction string `json:"direction"`
	Count     int64  `json:"count"`
}

// IntentRow is one intent bucket. Shared by the process-lifetime counter
// endpoint and the stored-log report.
type IntentRow struct {
	Intent string `json:"intent"`
	Count  int64  `json:"count"`
}

// Reporter runs aggregate queries over the message log on a database/sql
// handle. Read-only; an unreadable log reads as empty so the admin surface
// stays available, with the loss logged at error level.
type Reporter struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewReporter creates the reporting reader. A nil Reporter is usable and
// serves empty reports, which is how memory mode runs.
func NewReporter(db *sql.DB, logger *logging.Logger) *Reporter {
	return &Reporter{db: db, logger: logger.Named("reporting")}
}

// DailyVolume returns per-day, per-direction message counts over the last
// days calendar days, newest day first.
func (r *Reporter) DailyVolume(ctx context.Context, days int) []VolumeRow {
	if r == nil || r.db == nil {
		return []VolumeRow{}
	}
	if days < 1 {
		days = 1
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT to_char(date_trunc('day', ts), 'YYYY-MM-DD') AS day, direction, count(*)
		FROM messages
		WHERE ts >= now() - make_interval(days => $1)
		GROUP BY 1, 2
		ORDER BY 1 DESC, 2`, days)
	if err != nil {
		r.logger.Error("volume report failed, serving empty", "error", err)
		return []VolumeRow{}
	}
	defer rows.Close()

	out := []VolumeRow{}
	for rows.Next() {
		var row VolumeRow
		if err := rows.Scan(&row.Day, &row.Direction, &row.Count); err != nil {
			r.logger.Error("volume report scan failed, serving empty", "error", err)
			return []VolumeRow{}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("volume report read failed, serving empty", "error", err)
		return []VolumeRow{}
	}
	return out
}

// IntentTotals returns inbound intent counts over the whole stored log.
// Unlike the counter endpoint these survive process restarts.
func (r *Reporter) IntentTotals(ctx context.Context) []IntentRow {
	if r == nil || r.db == nil {
		return []IntentRow{}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT coalesce(nullif(intent, ''), 'other') AS intent, count(*)
		FROM messages
		WHERE direction = 'in'
		GROUP BY 1
		ORDER BY 2 DESC, 1`)
	if err != nil {
		r.logger.Error("intent report failed, serving empty", "error", err)
		return []IntentRow{}
	}
	defer rows.Close()

	out := []IntentRow{}
	for rows.Next() {
		var row IntentRow
		if err := rows.Scan(&row.Intent, &row.Count); err != nil {
			r.logger.Error("intent report scan failed, serving empty", "error", err)
			return []IntentRow{}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("intent report read failed, serving empty", "error", err)
		return []IntentRow{}
	}
	return out
}
