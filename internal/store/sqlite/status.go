package sqlite

import (
	"database/sql"
	"time"

	"github.com/pcdogyu/market-closure/internal/market"
)

type StatusRow struct {
	TSUTC     time.Time `json:"ts_utc"`
	Venue     string    `json:"venue"`
	LocalTime string    `json:"local_time"`
	Weekday   string    `json:"weekday"`
	Halted    bool      `json:"halted"`
	InHours   bool      `json:"in_hours"`
	InHoliday bool      `json:"in_holiday"`
}

func InsertStatus(db *sql.DB, tsUTC time.Time, venue string, st market.Status) error {
	_, err := db.Exec(`
		INSERT INTO closure_status(ts_utc, venue, local_time, weekday, halted, in_hours, in_holiday)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ts_utc, venue) DO UPDATE SET
			local_time=excluded.local_time,
			weekday=excluded.weekday,
			halted=excluded.halted,
			in_hours=excluded.in_hours,
			in_holiday=excluded.in_holiday
	`, fixedRFC3339Nano(tsUTC), venue, st.Local.Format(time.RFC3339), st.Weekday,
		st.Halted, st.InHours, st.InHoliday)
	return err
}

// QueryStatus returns the latest rows for a venue, oldest first.
func QueryStatus(db *sql.DB, venue string, limit int) ([]StatusRow, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := db.Query(`
		SELECT ts_utc, venue, local_time, weekday, halted, in_hours, in_holiday
		FROM closure_status
		WHERE venue = ?
		ORDER BY ts_utc DESC
		LIMIT ?
	`, venue, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StatusRow, 0, limit)
	for rows.Next() {
		var (
			r  StatusRow
			ts string
		)
		if err := rows.Scan(&ts, &r.Venue, &r.LocalTime, &r.Weekday, &r.Halted, &r.InHours, &r.InHoliday); err != nil {
			return nil, err
		}
		if r.TSUTC, err = parseFixedRFC3339Nano(ts); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverse(out)
	return out, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
