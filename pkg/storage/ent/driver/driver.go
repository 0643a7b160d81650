// Package entdriver implements storage.Driver on an ent SQL driver. Queries
// are built with ent's dialect-aware builders, so the SQLite and PostgreSQL
// drivers share every statement.
package entdriver

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/chameleon/pkg/storage"
	"github.com/papercomputeco/chameleon/pkg/storage/ent/migrate"
)

// EntDriver provides storage operations over an ent SQL driver.
// It is database-agnostic and can be embedded by specific drivers.
type EntDriver struct {
	Driver *sql.Driver
}

// New wraps drv and runs the attack_logs auto-migration.
func New(ctx context.Context, drv *sql.Driver) (*EntDriver, error) {
	if err := migrate.Create(ctx, drv); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &EntDriver{Driver: drv}, nil
}

func (ed *EntDriver) builder() *sql.DialectBuilder {
	return sql.Dialect(ed.Driver.Dialect())
}

func (ed *EntDriver) table() *sql.SelectTable {
	return ed.builder().Table(migrate.AttackLogsTableName)
}

// Put inserts a log. An existing ID is left unchanged.
func (ed *EntDriver) Put(ctx context.Context, log *storage.AttackLog) error {
	if log == nil {
		return errors.New("cannot store nil attack log")
	}
	if log.ID == "" {
		return storage.ErrMissingID
	}

	var payload stdsql.NullString
	if log.PayloadData != nil {
		payload = stdsql.NullString{String: *log.PayloadData, Valid: true}
	}

	query, args := ed.builder().Insert(migrate.AttackLogsTableName).
		Columns(migrate.Columns...).
		Values(
			log.ID,
			log.Timestamp.UTC(),
			log.IPAddress,
			log.RequestMethod,
			log.Endpoint,
			payload,
			log.AIResponseSent,
			log.UserAgent,
			log.Outcome,
		).
		OnConflict(sql.ConflictColumns(migrate.FieldID), sql.DoNothing()).
		Query()

	if err := ed.Driver.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("inserting attack log: %w", err)
	}
	return nil
}

// Get retrieves a log by ID.
func (ed *EntDriver) Get(ctx context.Context, id string) (*storage.AttackLog, error) {
	query, args := ed.builder().Select(migrate.Columns...).
		From(ed.table()).
		Where(sql.EQ(migrate.FieldID, id)).
		Query()

	logs, err := ed.queryLogs(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("querying attack log: %w", err)
	}
	if len(logs) == 0 {
		return nil, storage.NotFoundError{ID: id}
	}
	return logs[0], nil
}

// Recent returns up to limit logs, newest first.
func (ed *EntDriver) Recent(ctx context.Context, limit int) ([]*storage.AttackLog, error) {
	query, args := ed.builder().Select(migrate.Columns...).
		From(ed.table()).
		OrderBy(sql.Desc(migrate.FieldTimestamp), sql.Desc(migrate.FieldID)).
		Limit(limit).
		Query()

	logs, err := ed.queryLogs(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("querying recent attack logs: %w", err)
	}
	return logs, nil
}

// Stats returns the total count and the topN endpoints.
func (ed *EntDriver) Stats(ctx context.Context, topN int) (*storage.Stats, error) {
	stats := &storage.Stats{}

	query, args := ed.builder().Select(sql.Count("*")).From(ed.table()).Query()
	var rows sql.Rows
	if err := ed.Driver.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("counting attack logs: %w", err)
	}
	total, err := sql.ScanInt(rows)
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("counting attack logs: %w", err)
	}
	stats.TotalAttacks = total

	const hits = "hits"
	query, args = ed.builder().Select(migrate.FieldEndpoint, sql.As(sql.Count("*"), hits)).
		From(ed.table()).
		GroupBy(migrate.FieldEndpoint).
		OrderBy(sql.Desc(hits), sql.Asc(migrate.FieldEndpoint)).
		Limit(topN).
		Query()

	var grouped sql.Rows
	if err := ed.Driver.Query(ctx, query, args, &grouped); err != nil {
		return nil, fmt.Errorf("querying endpoint counts: %w", err)
	}
	defer grouped.Close()

	for grouped.Next() {
		var ec storage.EndpointCount
		if err := grouped.Scan(&ec.Endpoint, &ec.Count); err != nil {
			return nil, fmt.Errorf("scanning endpoint count: %w", err)
		}
		stats.TopEndpoints = append(stats.TopEndpoints, ec)
	}
	return stats, grouped.Err()
}

// Close closes the underlying database.
func (ed *EntDriver) Close() error {
	return ed.Driver.Close()
}

func (ed *EntDriver) queryLogs(ctx context.Context, query string, args []any) ([]*storage.AttackLog, error) {
	var rows sql.Rows
	if err := ed.Driver.Query(ctx, query, args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*storage.AttackLog
	for rows.Next() {
		var (
			log     storage.AttackLog
			ts      time.Time
			payload stdsql.NullString
		)
		err := rows.Scan(
			&log.ID,
			&ts,
			&log.IPAddress,
			&log.RequestMethod,
			&log.Endpoint,
			&payload,
			&log.AIResponseSent,
			&log.UserAgent,
			&log.Outcome,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning attack log: %w", err)
		}

		log.Timestamp = ts.UTC()
		if payload.Valid {
			p := payload.String
			log.PayloadData = &p
		}
		result = append(result, &log)
	}
	return result, rows.Err()
}
