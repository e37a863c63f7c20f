package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newServiceWithMock(t *testing.T) (*AnalyticsService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewAnalyticsService(db), mock, db
}

func summaryRow(vals ...float64) *sqlmock.Rows {
	r := sqlmock.NewRows([]string{"feature_a", "feature_b", "feature_c", "feature_d", "feature_e", "feature_f"})
	r.AddRow(vals[0], vals[1], vals[2], vals[3], vals[4], vals[5])
	return r
}

func TestSummary_NoFilters_EmptyTable(t *testing.T) {
	svc, mock, db := newServiceWithMock(t)
	defer db.Close()

	q := `(?s)SELECT\s+COALESCE\(SUM\(a\), 0\).*COALESCE\(SUM\(f\), 0\).*FROM analytics\s+WHERE 1=1$`
	mock.ExpectQuery(q).WillReturnRows(summaryRow(0, 0, 0, 0, 0, 0))

	data, err := svc.Summary(context.Background(), Filters{})
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	if data.A != 0 || data.B != 0 || data.C != 0 || data.D != 0 || data.E != 0 || data.F != 0 {
		t.Fatalf("expected all-zero summary, got %+v", data)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSummary_AllFilters(t *testing.T) {
	svc, mock, db := newServiceWithMock(t)
	defer db.Close()

	q := `(?s)FROM analytics\s+WHERE 1=1 AND age = \$1 AND gender = \$2 AND day BETWEEN \$3 AND \$4$`
	mock.ExpectQuery(q).
		WithArgs("18-24", "Female", "2024-01-01", "2024-01-31").
		WillReturnRows(summaryRow(10, 20, 30, 40, 50, 60))

	data, err := svc.Summary(context.Background(), Filters{
		Age:       "18-24",
		Gender:    "female",
		StartDate: "2024-01-01",
		EndDate:   "2024-01-31",
	})
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	if data.A != 10 || data.F != 60 {
		t.Fatalf("unexpected summary: %+v", data)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// A one-sided date range does not constrain the summary; only a full
// range is applied.
func TestSummary_OneSidedRangeIgnored(t *testing.T) {
	svc, mock, db := newServiceWithMock(t)
	defer db.Close()

	q := `(?s)FROM analytics\s+WHERE 1=1$`
	mock.ExpectQuery(q).WillReturnRows(summaryRow(1, 2, 3, 4, 5, 6))

	if _, err := svc.Summary(context.Background(), Filters{StartDate: "2024-01-01"}); err != nil {
		t.Fatalf("Summary error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSummary_GenderCaseInsensitive(t *testing.T) {
	for _, gender := range []string{"male", "MALE", "Male", "mALE"} {
		svc, mock, db := newServiceWithMock(t)

		q := `(?s)WHERE 1=1 AND gender = \$1$`
		mock.ExpectQuery(q).
			WithArgs("Male").
			WillReturnRows(summaryRow(1, 1, 1, 1, 1, 1))

		if _, err := svc.Summary(context.Background(), Filters{Gender: gender}); err != nil {
			t.Fatalf("Summary(%q) error: %v", gender, err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("gender %q bound wrong parameter: %v", gender, err)
		}
		db.Close()
	}
}

func TestSummary_DBError(t *testing.T) {
	svc, mock, db := newServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM analytics`).WillReturnError(errors.New("connection refused"))

	if _, err := svc.Summary(context.Background(), Filters{}); err == nil {
		t.Fatal("expected error from failing store")
	}
}

func TestTimeseries_UnknownFeature_NoQuery(t *testing.T) {
	for _, feature := range []string{"", "g", "z", "a; DROP TABLE analytics", "feature_a"} {
		svc, mock, db := newServiceWithMock(t)

		_, err := svc.Timeseries(context.Background(), feature, Filters{})
		if !errors.Is(err, ErrUnknownFeature) {
			t.Fatalf("Timeseries(%q): want ErrUnknownFeature, got %v", feature, err)
		}
		// Zero store queries must have happened
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("Timeseries(%q) touched the store: %v", feature, err)
		}
		db.Close()
	}
}

// Any spelling of the feature hits the same column, and the response echoes
// the feature exactly as the caller wrote it.
func TestTimeseries_FeatureCaseInsensitive(t *testing.T) {
	for _, feature := range []string{"c", "C"} {
		svc, mock, db := newServiceWithMock(t)

		q := `(?s)SELECT day, COALESCE\(SUM\(c\), 0\).*GROUP BY day ORDER BY day ASC$`
		rows := sqlmock.NewRows([]string{"day", "total"}).
			AddRow(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 42.0)
		mock.ExpectQuery(q).WillReturnRows(rows)

		data, err := svc.Timeseries(context.Background(), feature, Filters{})
		if err != nil {
			t.Fatalf("Timeseries(%q) error: %v", feature, err)
		}
		if data.Feature != feature {
			t.Fatalf("expected feature echo %q, got %q", feature, data.Feature)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("unmet expectations: %v", err)
		}
		db.Close()
	}
}

func TestTimeseries_OrderedByDay(t *testing.T) {
	svc, mock, db := newServiceWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"day", "total"}).
		AddRow(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 5.0).
		AddRow(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), 7.5).
		AddRow(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 0.0)
	mock.ExpectQuery(`(?s)GROUP BY day ORDER BY day ASC$`).WillReturnRows(rows)

	data, err := svc.Timeseries(context.Background(), "a", Filters{})
	if err != nil {
		t.Fatalf("Timeseries error: %v", err)
	}
	if len(data.Data) != 3 {
		t.Fatalf("expected 3 points, got %d", len(data.Data))
	}
	seen := map[string]bool{}
	for i, p := range data.Data {
		if seen[p.Date] {
			t.Fatalf("duplicate date %s", p.Date)
		}
		seen[p.Date] = true
		if i > 0 && data.Data[i-1].Date >= p.Date {
			t.Fatalf("dates not strictly ascending: %s then %s", data.Data[i-1].Date, p.Date)
		}
	}
	if data.Data[0].Date != "2024-03-01" || data.Data[2].Value != 0.0 {
		t.Fatalf("unexpected points: %+v", data.Data)
	}
}

func TestTimeseries_OneSidedRanges(t *testing.T) {
	cases := []struct {
		name    string
		filters Filters
		pattern string
		args    []interface{}
	}{
		{"start only", Filters{StartDate: "2024-01-01"}, `AND day >= \$1`, []interface{}{"2024-01-01"}},
		{"end only", Filters{EndDate: "2024-06-30"}, `AND day <= \$1`, []interface{}{"2024-06-30"}},
		{"both", Filters{StartDate: "2024-01-01", EndDate: "2024-06-30"}, `AND day BETWEEN \$1 AND \$2`, []interface{}{"2024-01-01", "2024-06-30"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, mock, db := newServiceWithMock(t)
			defer db.Close()

			rows := sqlmock.NewRows([]string{"day", "total"}).
				AddRow(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 1.0)
			drvArgs := make([]driver.Value, len(tc.args))
			for i, a := range tc.args {
				drvArgs[i] = a
			}
			mock.ExpectQuery(`(?s)` + tc.pattern).WithArgs(drvArgs...).WillReturnRows(rows)

			if _, err := svc.Timeseries(context.Background(), "b", tc.filters); err != nil {
				t.Fatalf("Timeseries error: %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestTimeseries_EmptyResult(t *testing.T) {
	svc, mock, db := newServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`GROUP BY day`).
		WillReturnRows(sqlmock.NewRows([]string{"day", "total"}))

	_, err := svc.Timeseries(context.Background(), "a", Filters{})
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
}

func TestTimeseries_DBError(t *testing.T) {
	svc, mock, db := newServiceWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`GROUP BY day`).WillReturnError(errors.New("db down"))

	if _, err := svc.Timeseries(context.Background(), "a", Filters{}); err == nil || errors.Is(err, ErrNoData) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestNormalizeGender(t *testing.T) {
	cases := map[string]string{
		"":        "",
		"male":    "Male",
		"MALE":    "Male",
		"Male":    "Male",
		"fEMALE":  "Female",
		" female": "Female",
	}
	for in, want := range cases {
		if got := NormalizeGender(in); got != want {
			t.Errorf("NormalizeGender(%q) = %q, want %q", in, got, want)
		}
	}
}
