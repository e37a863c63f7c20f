package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/featurepulse/backend/internal/models"
)

// ErrNoData is returned when a timeseries query matches zero rows. The
// dashboard treats "no rows" differently from "rows that sum to zero".
var ErrNoData = errors.New("no data for the given parameters")

// ErrUnknownFeature is returned before any query runs when the requested
// feature is missing or not one of the tracked measures.
var ErrUnknownFeature = errors.New("unknown feature")

// featureColumns is the allow-list mapping request feature identifiers to
// column names. Column names only ever come from this map; user input never
// reaches the SQL text, only bound parameters.
var featureColumns = map[string]string{
	"a": "a",
	"b": "b",
	"c": "c",
	"d": "d",
	"e": "e",
	"f": "f",
}

// Filters are the optional predicates shared by both chart queries.
// Empty fields impose no constraint.
type Filters struct {
	Age       string
	Gender    string
	StartDate string
	EndDate   string
}

// NormalizeGender maps any casing of the gender filter to the stored form
// ("male", "MALE" → "Male"). Empty input stays empty.
func NormalizeGender(gender string) string {
	gender = strings.TrimSpace(gender)
	if gender == "" {
		return ""
	}
	return strings.ToUpper(gender[:1]) + strings.ToLower(gender[1:])
}

// AnalyticsService runs aggregate queries against the analytics table.
type AnalyticsService struct {
	db *sql.DB
}

func NewAnalyticsService(db *sql.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// Summary sums the six measures over all rows matching the filters.
// The date range is only applied when both endpoints are provided.
// An empty match still yields zeros via COALESCE, never an error.
func (s *AnalyticsService) Summary(ctx context.Context, f Filters) (*models.SummaryData, error) {
	query := `SELECT
		COALESCE(SUM(a), 0) AS feature_a,
		COALESCE(SUM(b), 0) AS feature_b,
		COALESCE(SUM(c), 0) AS feature_c,
		COALESCE(SUM(d), 0) AS feature_d,
		COALESCE(SUM(e), 0) AS feature_e,
		COALESCE(SUM(f), 0) AS feature_f
	FROM analytics
	WHERE 1=1`

	var args []interface{}
	if f.Age != "" {
		query += fmt.Sprintf(` AND age = $%d`, len(args)+1)
		args = append(args, f.Age)
	}
	if f.Gender != "" {
		query += fmt.Sprintf(` AND gender = $%d`, len(args)+1)
		args = append(args, NormalizeGender(f.Gender))
	}
	if f.StartDate != "" && f.EndDate != "" {
		query += fmt.Sprintf(` AND day BETWEEN $%d AND $%d`, len(args)+1, len(args)+2)
		args = append(args, f.StartDate, f.EndDate)
	}

	data := &models.SummaryData{}
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&data.A, &data.B, &data.C, &data.D, &data.E, &data.F)
	if err != nil {
		return nil, fmt.Errorf("summary query: %w", err)
	}

	return data, nil
}

// Timeseries sums the requested measure per day over all rows matching the
// filters, ordered ascending by day. Unlike Summary, a one-sided date range
// is honored. Returns ErrUnknownFeature without touching the store when the
// feature is not in the allow-list, and ErrNoData when nothing matches.
func (s *AnalyticsService) Timeseries(ctx context.Context, feature string, f Filters) (*models.TimeseriesData, error) {
	key := strings.ToLower(strings.TrimSpace(feature))
	column, ok := featureColumns[key]
	if !ok {
		return nil, ErrUnknownFeature
	}

	// column comes from the allow-list above, never from the request
	query := fmt.Sprintf(`SELECT day, COALESCE(SUM(%s), 0) AS total
	FROM analytics
	WHERE 1=1`, column)

	var args []interface{}
	if f.Age != "" {
		query += fmt.Sprintf(` AND age = $%d`, len(args)+1)
		args = append(args, f.Age)
	}
	if f.Gender != "" {
		query += fmt.Sprintf(` AND gender = $%d`, len(args)+1)
		args = append(args, NormalizeGender(f.Gender))
	}
	switch {
	case f.StartDate != "" && f.EndDate != "":
		query += fmt.Sprintf(` AND day BETWEEN $%d AND $%d`, len(args)+1, len(args)+2)
		args = append(args, f.StartDate, f.EndDate)
	case f.StartDate != "":
		query += fmt.Sprintf(` AND day >= $%d`, len(args)+1)
		args = append(args, f.StartDate)
	case f.EndDate != "":
		query += fmt.Sprintf(` AND day <= $%d`, len(args)+1)
		args = append(args, f.EndDate)
	}

	query += ` GROUP BY day ORDER BY day ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("timeseries query: %w", err)
	}
	defer rows.Close()

	var points []models.TimeseriesPoint
	for rows.Next() {
		var day time.Time
		var total float64
		if err := rows.Scan(&day, &total); err != nil {
			return nil, fmt.Errorf("timeseries scan: %w", err)
		}
		points = append(points, models.TimeseriesPoint{
			Date:  day.Format("2006-01-02"),
			Value: total,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("timeseries rows: %w", err)
	}

	if len(points) == 0 {
		return nil, ErrNoData
	}

	// Echo the feature exactly as the caller spelled it; only the column
	// lookup is case-insensitive
	return &models.TimeseriesData{
		Feature: feature,
		Data:    points,
	}, nil
}
