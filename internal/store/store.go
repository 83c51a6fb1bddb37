// Package store reads the dashboard entities the generation flows depend on.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/af-corp/tourdesk/internal/config"
)

const uniqueViolation = "23505"

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// PersistenceError is any database failure other than a unique violation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store is the lookup surface used by the generation pipelines.
// Find* methods return nil, nil when nothing matches.
type Store interface {
	FindDestinationByName(ctx context.Context, name string) (*Destination, error)
	FindDestinationByID(ctx context.Context, id int64) (*Destination, error)
	GetPackage(ctx context.Context, id int64) (*Package, error)
	FindItineraryByPackage(ctx context.Context, packageID int64) (*Itinerary, error)
	Ping(ctx context.Context) error
}

// Open connects to PostgreSQL through the pgx database/sql driver.
func Open(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// classify maps a driver error to ErrDuplicate or *PersistenceError.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	}
	return &PersistenceError{Op: op, Err: err}
}

// Postgres implements Store on a *sql.DB.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return classify("ping database", err)
	}
	return nil
}

const destinationColumns = `id, name, country, heading, overview, description,
	       best_time_to_visit, travel_tips, image_url, thumbnail_url, created_at`

func scanDestination(row *sql.Row) (*Destination, error) {
	var d Destination
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Country,
		&d.Heading,
		&d.Overview,
		&d.Description,
		&d.BestTimeToVisit,
		&d.TravelTips,
		&d.ImageURL,
		&d.ThumbnailURL,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Postgres) FindDestinationByName(ctx context.Context, name string) (*Destination, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+destinationColumns+`
		FROM destinations
		WHERE lower(name) = lower($1)
		LIMIT 1
	`, name)
	d, err := scanDestination(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("query destinations by name", err)
	}
	return d, nil
}

func (s *Postgres) FindDestinationByID(ctx context.Context, id int64) (*Destination, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+destinationColumns+`
		FROM destinations
		WHERE id = $1
	`, id)
	d, err := scanDestination(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("query destinations by id", err)
	}
	return d, nil
}

func (s *Postgres) GetPackage(ctx context.Context, id int64) (*Package, error) {
	var p Package
	var toursID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.day, p.night, p.tour_type, p.tours_id,
		       p.destination_id, d.name
		FROM packages p
		JOIN destinations d ON d.id = p.destination_id
		WHERE p.id = $1
	`, id).Scan(
		&p.ID,
		&p.Name,
		&p.Day,
		&p.Night,
		&p.TourType,
		&toursID,
		&p.DestinationID,
		&p.DestinationName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("package %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, classify("query packages", err)
	}
	if toursID.Valid {
		p.ToursID = &toursID.Int64
	}
	return &p, nil
}

func (s *Postgres) FindItineraryByPackage(ctx context.Context, packageID int64) (*Itinerary, error) {
	var it Itinerary
	var highlights, cities, days []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, package_id, highlights, cities, days, created_at
		FROM itineraries
		WHERE package_id = $1
		ORDER BY id DESC
		LIMIT 1
	`, packageID).Scan(
		&it.ID,
		&it.PackageID,
		&highlights,
		&cities,
		&days,
		&it.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("query itineraries", err)
	}
	if err := it.decode(highlights, cities, days); err != nil {
		return nil, &PersistenceError{Op: "decode itinerary", Err: err}
	}
	return &it, nil
}
