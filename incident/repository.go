// Copyright 2025 The ChapaUY Authors
// SPDX-License-Identifier: Apache-2.0

package incident

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jcodagnone/hotspots/spatial"
	"github.com/jcodagnone/hotspots/utils/textutils"
	"github.com/uber/h3-go/v4"
)

// Resolutions at which H3 cells are stored for every geolocated record.
// Res 7 cells are ~5 km², res 8 ~0.7 km², about a neighborhood.
const (
	CoarseResolution = 7
	FineResolution   = 8
)

// ErrInvalidCell is returned by ListReports for unusable ReportFilter.Cell values.
var ErrInvalidCell = errors.New("invalid h3 cell")

// ReportFilter restricts ListReports. Zero values match everything.
type ReportFilter struct {
	// Category is compared after accent and case folding.
	Category string
	// Cell is an H3 cell (hex string) at CoarseResolution or FineResolution.
	// Reports without coordinates never match a cell.
	Cell string
	// GeolocatedOnly drops reports without coordinates.
	GeolocatedOnly bool
}

// AlertFilter restricts ListAlerts.
type AlertFilter struct {
	Status AlertStatus
}

// Counts summarizes the repository contents.
type Counts struct {
	Reports           int
	GeolocatedReports int
	Alerts            int
}

// Repository persists reports and alerts.
type Repository interface {
	// CreateSchema creates the reports and alerts tables
	CreateSchema() error

	// SaveReports inserts or replaces reports. Reports without an id get one.
	SaveReports(reports []*Report) error

	// SaveAlerts inserts or replaces alerts. Alerts without an id get one.
	SaveAlerts(alerts []*Alert) error

	// ListReports returns reports ordered by creation time
	ListReports(filter ReportFilter) ([]Report, error)

	// ListAlerts returns alerts ordered by timestamp
	ListAlerts(filter AlertFilter) ([]Alert, error)

	// Counts returns the number of stored records
	Counts() (Counts, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository creates a repository backed by db. The caller registers the
// driver; tables are created by CreateSchema.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			title VARCHAR NOT NULL,
			description TEXT NOT NULL,
			category VARCHAR NOT NULL,
			priority VARCHAR NOT NULL,
			status VARCHAR NOT NULL,
			address VARCHAR NOT NULL,
			latitude DOUBLE,
			longitude DOUBLE,
			date_time TIMESTAMP,
			assigned_officer VARCHAR,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id VARCHAR PRIMARY KEY,
			user_id VARCHAR NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			address VARCHAR,
			sent_at TIMESTAMP NOT NULL,
			status VARCHAR NOT NULL,
			responder_id VARCHAR,
			h3_res7 UBIGINT,
			h3_res8 UBIGINT
		);
	`)

	return err
}

// cells returns the H3 cells of p at CoarseResolution and FineResolution.
func cells(p spatial.Point) (coarse, fine int64, err error) {
	c7, err := p.Cell(CoarseResolution)
	if err != nil {
		return 0, 0, err
	}

	c8, err := p.Cell(FineResolution)
	if err != nil {
		return 0, 0, err
	}

	return int64(c7), int64(c8), nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}

	return s
}

// nullable dereferences p, turning nil pointers into SQL NULLs.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}

	return *p
}

// withTx runs fn inside a transaction, rolling back on error.
func (r *sqlRepository) withTx(query string, fn func(stmt *sql.Stmt) error) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(query)
	if err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = rErr
		}

		return err
	}
	defer stmt.Close()

	if err := fn(stmt); err != nil {
		if rErr := tx.Rollback(); rErr != nil {
			err = errors.Join(err, rErr)
		}

		return err
	}

	return tx.Commit()
}

func (r *sqlRepository) SaveReports(reports []*Report) error {
	return r.withTx(`
		INSERT OR REPLACE INTO reports(
			id,
			user_id,
			title,
			description,
			category,
			priority,
			status,
			address,
			latitude,
			longitude,
			date_time,
			assigned_officer,
			created_at,
			updated_at,
			h3_res7,
			h3_res8
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, func(stmt *sql.Stmt) error {
		now := time.Now()

		for _, report := range reports {
			if report.ID == "" {
				report.ID = uuid.NewString()
			}

			if report.CreatedAt.IsZero() {
				report.CreatedAt = now
			}

			if report.UpdatedAt.IsZero() {
				report.UpdatedAt = report.CreatedAt
			}

			if report.Status == "" {
				report.Status = StatusPending
			}

			var coarse, fine *int64

			if p, ok := report.Location.Point(); ok {
				c7, c8, err := cells(p)
				if err != nil {
					return fmt.Errorf("report %s: %w", report.ID, err)
				}

				coarse, fine = &c7, &c8
			}

			var dateTime *time.Time
			if !report.DateTime.IsZero() {
				dateTime = &report.DateTime
			}

			if _, err := stmt.Exec(
				report.ID,
				report.UserID,
				report.Title,
				report.Description,
				string(report.Category),
				string(report.Priority),
				string(report.Status),
				report.Location.Address,
				nullable(report.Location.Latitude),
				nullable(report.Location.Longitude),
				nullable(dateTime),
				nullString(report.AssignedOfficer),
				report.CreatedAt,
				report.UpdatedAt,
				nullable(coarse),
				nullable(fine),
			); err != nil {
				return fmt.Errorf("saving report %s: %w", report.ID, err)
			}
		}

		return nil
	})
}

func (r *sqlRepository) SaveAlerts(alerts []*Alert) error {
	return r.withTx(`
		INSERT OR REPLACE INTO alerts(
			id,
			user_id,
			latitude,
			longitude,
			address,
			sent_at,
			status,
			responder_id,
			h3_res7,
			h3_res8
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, func(stmt *sql.Stmt) error {
		now := time.Now()

		for _, alert := range alerts {
			if alert.ID == "" {
				alert.ID = uuid.NewString()
			}

			if alert.Timestamp.IsZero() {
				alert.Timestamp = now
			}

			if alert.Status == "" {
				alert.Status = AlertActive
			}

			coarse, fine, err := cells(alert.Point())
			if err != nil {
				return fmt.Errorf("alert %s: %w", alert.ID, err)
			}

			if _, err := stmt.Exec(
				alert.ID,
				alert.UserID,
				alert.Location.Latitude,
				alert.Location.Longitude,
				nullString(alert.Location.Address),
				alert.Timestamp,
				string(alert.Status),
				nullString(alert.ResponderID),
				coarse,
				fine,
			); err != nil {
				return fmt.Errorf("saving alert %s: %w", alert.ID, err)
			}
		}

		return nil
	})
}

// cellColumn parses an H3 cell and returns the column it is stored in.
func cellColumn(cell string) (string, int64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(cell), 16, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w %q: %w", ErrInvalidCell, cell, err)
	}

	c := h3.Cell(v)
	if !c.IsValid() {
		return "", 0, fmt.Errorf("%w %q", ErrInvalidCell, cell)
	}

	switch c.Resolution() {
	case CoarseResolution:
		return "h3_res7", int64(v), nil
	case FineResolution:
		return "h3_res8", int64(v), nil
	default:
		return "", 0, fmt.Errorf("%w: %q has resolution %d, want %d or %d",
			ErrInvalidCell, cell, c.Resolution(), CoarseResolution, FineResolution)
	}
}

func (r *sqlRepository) ListReports(filter ReportFilter) ([]Report, error) {
	var (
		where []string
		args  []any
	)

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, textutils.LowerASCIIFolding(filter.Category))
	}

	if filter.Cell != "" {
		column, cell, err := cellColumn(filter.Cell)
		if err != nil {
			return nil, err
		}

		where = append(where, column+" = ?")
		args = append(args, cell)
	}

	if filter.GeolocatedOnly {
		where = append(where, "latitude IS NOT NULL AND longitude IS NOT NULL")
	}

	query := `
		SELECT id, user_id, title, description, category, priority, status,
		       address, latitude, longitude, date_time, assigned_officer,
		       created_at, updated_at
		FROM reports
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	query += " ORDER BY created_at, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []Report

	for rows.Next() {
		var (
			report          Report
			lat, lng        sql.NullFloat64
			dateTime        sql.NullTime
			assignedOfficer sql.NullString
		)

		if err := rows.Scan(
			&report.ID,
			&report.UserID,
			&report.Title,
			&report.Description,
			&report.Category,
			&report.Priority,
			&report.Status,
			&report.Location.Address,
			&lat,
			&lng,
			&dateTime,
			&assignedOfficer,
			&report.CreatedAt,
			&report.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if lat.Valid && lng.Valid {
			report.Location.Latitude = &lat.Float64
			report.Location.Longitude = &lng.Float64
		}

		if dateTime.Valid {
			report.DateTime = dateTime.Time
		}

		if assignedOfficer.Valid {
			report.AssignedOfficer = assignedOfficer.String
		}

		reports = append(reports, report)
	}

	return reports, rows.Err()
}

func (r *sqlRepository) ListAlerts(filter AlertFilter) ([]Alert, error) {
	query := `
		SELECT id, user_id, latitude, longitude, address, sent_at, status, responder_id
		FROM alerts
	`

	var args []any

	if filter.Status != "" {
		query += " WHERE status = ?"

		args = append(args, string(filter.Status))
	}

	query += " ORDER BY sent_at, id"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []Alert

	for rows.Next() {
		var (
			alert       Alert
			address     sql.NullString
			responderID sql.NullString
		)

		if err := rows.Scan(
			&alert.ID,
			&alert.UserID,
			&alert.Location.Latitude,
			&alert.Location.Longitude,
			&address,
			&alert.Timestamp,
			&alert.Status,
			&responderID,
		); err != nil {
			return nil, err
		}

		alert.Location.Address = address.String
		alert.ResponderID = responderID.String

		alerts = append(alerts, alert)
	}

	return alerts, rows.Err()
}

func (r *sqlRepository) Counts() (Counts, error) {
	var c Counts

	err := r.db.QueryRow(`
		SELECT
			(SELECT count(*) FROM reports) AS reports,
			(SELECT count(*) FROM reports WHERE latitude IS NOT NULL AND longitude IS NOT NULL) AS geolocated,
			(SELECT count(*) FROM alerts) AS alerts
	`).Scan(&c.Reports, &c.GeolocatedReports, &c.Alerts)

	return c, err
}
