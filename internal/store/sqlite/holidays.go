package sqlite

import (
	"database/sql"

	"github.com/pcdogyu/market-closure/internal/market"
)

// ReplaceImportedHolidays swaps every holiday previously imported for venue
// from source with hs.
func ReplaceImportedHolidays(db *sql.DB, venue, source string, hs []market.Holiday) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM imported_holiday WHERE venue = ? AND source = ?`, venue, source); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO imported_holiday(venue, year, month, day, hours, name, source)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(venue, year, month, day, hours) DO UPDATE SET
			name=excluded.name,
			source=excluded.source
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, h := range hs {
		if _, err := stmt.Exec(venue, h.Year, h.Month, h.Day, h.Hours, h.Name, source); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// QueryImportedHolidays returns every imported holiday for venue in date order.
func QueryImportedHolidays(db *sql.DB, venue string) ([]market.Holiday, error) {
	rows, err := db.Query(`
		SELECT year, month, day, hours, COALESCE(name, '')
		FROM imported_holiday
		WHERE venue = ?
		ORDER BY year, month, day, hours
	`, venue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.Holiday
	for rows.Next() {
		var h market.Holiday
		if err := rows.Scan(&h.Year, &h.Month, &h.Day, &h.Hours, &h.Name); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
