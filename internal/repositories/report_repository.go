package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"smartbus/internal/domain/models"
)

type ReportRepository struct {
	DB *sql.DB
}

func (r ReportRepository) db() (*sql.DB, error) { return pick(r.DB) }

func (r ReportRepository) Create(ctx context.Context, in models.NewReport) (int64, error) {
	db, err := r.db()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO reports (user_id, bus_id, report_type, location_lat, location_lon, description, media_url)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.UserID, in.BusID, in.ReportType, in.LocationLat, in.LocationLon, in.Description, in.MediaURL)
	if err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}
	return res.LastInsertId()
}

// ListRecent returns the newest reports across all users, with the reporter
// and bus number.
func (r ReportRepository) ListRecent(ctx context.Context, limit int) ([]models.Report, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT
			r.report_id, r.user_id, u.name, u.mobile,
			r.bus_id, b.bus_number, r.report_type,
			r.location_lat, r.location_lon, r.description, r.media_url, r.created_at
		FROM reports r
		LEFT JOIN users u ON r.user_id = u.user_id
		LEFT JOIN buses b ON r.bus_id = b.bus_id
		ORDER BY r.created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := []models.Report{}
	for rows.Next() {
		var (
			rep              models.Report
			name, mobile     sql.NullString
			busID            sql.NullInt64
			busNumber, media sql.NullString
			lat, lon         sql.NullFloat64
			description      sql.NullString
		)
		if err := rows.Scan(
			&rep.ReportID, &rep.UserID, &name, &mobile,
			&busID, &busNumber, &rep.ReportType,
			&lat, &lon, &description, &media, &rep.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		rep.UserName, rep.UserMobile = nullString(name), nullString(mobile)
		rep.BusID, rep.BusNumber = nullInt(busID), nullString(busNumber)
		rep.LocationLat, rep.LocationLon = nullFloat(lat), nullFloat(lon)
		rep.Description, rep.MediaURL = description.String, nullString(media)
		out = append(out, rep)
	}
	return out, rows.Err()
}

func (r ReportRepository) ListByUser(ctx context.Context, userID int64) ([]models.Report, error) {
	db, err := r.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `
		SELECT
			r.report_id, r.bus_id, b.bus_number, r.report_type,
			r.location_lat, r.location_lon, r.description, r.media_url, r.created_at
		FROM reports r
		LEFT JOIN buses b ON r.bus_id = b.bus_id
		WHERE r.user_id = ?
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list reports for user %d: %w", userID, err)
	}
	defer rows.Close()

	out := []models.Report{}
	for rows.Next() {
		var (
			rep              models.Report
			busID            sql.NullInt64
			busNumber, media sql.NullString
			lat, lon         sql.NullFloat64
			description      sql.NullString
		)
		if err := rows.Scan(
			&rep.ReportID, &busID, &busNumber, &rep.ReportType,
			&lat, &lon, &description, &media, &rep.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		rep.BusID, rep.BusNumber = nullInt(busID), nullString(busNumber)
		rep.LocationLat, rep.LocationLon = nullFloat(lat), nullFloat(lon)
		rep.Description, rep.MediaURL = description.String, nullString(media)
		out = append(out, rep)
	}
	return out, rows.Err()
}
