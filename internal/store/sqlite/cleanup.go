package sqlite

import (
	"database/sql"
	"fmt"
	"time"
)

// CleanupOldData deletes status history older than retentionDays and
// imported holidays from years that ended before the cutoff.
// Status rows use a fixed-width RFC3339Nano format stored as TEXT, so lexicographic compare works.
func CleanupOldData(db *sql.DB, nowUTC time.Time, retentionDays int) error {
	if retentionDays < 1 {
		return fmt.Errorf("retentionDays must be >= 1")
	}

	cutoff := nowUTC.AddDate(0, 0, -retentionDays)

	stmts := []struct {
		sql  string
		args []any
	}{
		{`DELETE FROM closure_status WHERE ts_utc < ?`, []any{fixedRFC3339Nano(cutoff)}},
		{`DELETE FROM imported_holiday WHERE year < ?`, []any{cutoff.Year()}},
	}

	for _, st := range stmts {
		if _, err := db.Exec(st.sql, st.args...); err != nil {
			return err
		}
	}
	return nil
}
