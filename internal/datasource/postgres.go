// Package datasource loads tables from external databases as an alternative
// ingestion path to file upload. Connections are read-only from the app's
// point of view: we list tables and pull rows, nothing else.
package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"smartdash/internal/dataset"
)

// Config holds connection details for a Postgres source.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require"
}

// Source is an ingestion backend that can enumerate tables and materialize
// one of them as an in-memory dataset.
type Source interface {
	Connect(ctx context.Context, cfg Config) error
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	LoadTable(ctx context.Context, name string, limit int) (*dataset.Table, error)
}

// Postgres implements Source over lib/pq.
type Postgres struct {
	db *sql.DB
}

func NewPostgres() *Postgres { return &Postgres{} }

func (p *Postgres) Connect(ctx context.Context, cfg Config) error {
	if cfg.SSLMode == "" {
		cfg.SSLMode = "require"
	}
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(4)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	p.db = db
	return nil
}

func (p *Postgres) Close() error {
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}

func (p *Postgres) ListTables(ctx context.Context) ([]string, error) {
	if p.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// LoadTable pulls up to limit rows of name into a Table. Every value is
// rendered to its string form so the result goes through the same coercion
// pipeline as an uploaded file. The table name is validated against the
// catalog before being interpolated into the query.
func (p *Postgres) LoadTable(ctx context.Context, name string, limit int) (*dataset.Table, error) {
	if p.db == nil {
		return nil, fmt.Errorf("not connected")
	}
	known, err := p.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, t := range known {
		if t == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("unknown table %q", name)
	}
	if limit <= 0 {
		limit = 10000
	}

	rows, err := p.db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %q LIMIT %d`, name, limit))
	if err != nil {
		return nil, fmt.Errorf("load table %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records [][]string
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = renderValue(v)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return dataset.NewTable(name, columns, records)
}

func renderValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02")
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
