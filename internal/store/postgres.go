package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"tourlab/internal/model"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Ping reports database reachability for readiness checks.
func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// Migrate applies the embedded schema files in name order. Every statement
// is idempotent, so running it on each start is safe.
func (p *Postgres) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		b, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		if _, err := p.db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

const problemCols = `id::text, name, comment, scale, version, nodes`

type scanner interface{ Scan(dest ...any) error }

func scanProblem(row scanner) (model.Problem, error) {
	var (
		p     model.Problem
		nodes []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Comment, &p.Scale, &p.Version, &nodes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Problem{}, ErrNotFound
		}
		return model.Problem{}, err
	}
	if err := json.Unmarshal(nodes, &p.Nodes); err != nil {
		return model.Problem{}, fmt.Errorf("problem %s: nodes: %w", p.ID, err)
	}
	return p, nil
}

func nodesJSON(ns model.NodeSet) (string, error) {
	if ns == nil {
		ns = model.NodeSet{}
	}
	b, err := json.Marshal(ns)
	return string(b), err
}

// validID keeps malformed ids from reaching the uuid cast in SQL.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (p *Postgres) CreateProblem(ctx context.Context, in model.Problem) (model.Problem, error) {
	nodes, err := nodesJSON(in.Nodes)
	if err != nil {
		return model.Problem{}, err
	}
	row := p.db.QueryRowContext(ctx,
		`INSERT INTO problems (id, name, comment, scale, version, nodes) VALUES ($1,$2,$3,$4,1,$5::jsonb) RETURNING `+problemCols,
		uuid.New(), in.Name, in.Comment, in.Scale, nodes)
	return scanProblem(row)
}

func (p *Postgres) GetProblem(ctx context.Context, id string) (model.Problem, error) {
	if !validID(id) {
		return model.Problem{}, ErrNotFound
	}
	return scanProblem(p.db.QueryRowContext(ctx, `SELECT `+problemCols+` FROM problems WHERE id=$1::uuid`, id))
}

func (p *Postgres) ListProblems(ctx context.Context, cursor string, limit int) ([]model.Problem, string, error) {
	limit = clampLimit(limit)
	if cursor != "" && !validID(cursor) {
		return nil, "", fmt.Errorf("invalid cursor")
	}
	rows, err := p.db.QueryContext(ctx, `SELECT `+problemCols+` FROM problems
        WHERE $1 = '' OR (created_at, id) > (SELECT created_at, id FROM problems WHERE id = NULLIF($1,'')::uuid)
        ORDER BY created_at, id LIMIT $2`, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var out []model.Problem
	for rows.Next() {
		pr, err := scanProblem(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[limit-1].ID
	}
	return out, next, nil
}

func (p *Postgres) UpdateNodes(ctx context.Context, id string, ifVersion int, ns model.NodeSet) (model.Problem, error) {
	if !validID(id) {
		return model.Problem{}, ErrNotFound
	}
	nodes, err := nodesJSON(ns)
	if err != nil {
		return model.Problem{}, err
	}
	row := p.db.QueryRowContext(ctx, `UPDATE problems SET nodes=$2::jsonb, version=version+1
        WHERE id=$1::uuid AND ($3 = 0 OR version = $3) RETURNING `+problemCols, id, nodes, ifVersion)
	pr, err := scanProblem(row)
	if errors.Is(err, ErrNotFound) && ifVersion != 0 {
		// the row may exist with another version
		if _, gerr := p.GetProblem(ctx, id); gerr == nil {
			return model.Problem{}, ErrConflict
		}
	}
	return pr, err
}

func (p *Postgres) DeleteProblem(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	res, err := p.db.ExecContext(ctx, `DELETE FROM problems WHERE id=$1::uuid`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const traceCols = `id::text, problem_id::text, problem_version, strategy, steps, created_at`

func scanTrace(row scanner) (model.TraceRecord, error) {
	var (
		tr    model.TraceRecord
		steps []byte
		at    time.Time
	)
	if err := row.Scan(&tr.ID, &tr.ProblemID, &tr.ProblemVersion, &tr.Strategy, &steps, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TraceRecord{}, ErrNotFound
		}
		return model.TraceRecord{}, err
	}
	tr.Steps = steps
	tr.CreatedAt = at.UTC().Format(time.RFC3339)
	return tr, nil
}

func (p *Postgres) SaveTrace(ctx context.Context, in model.TraceRecord) (model.TraceRecord, error) {
	if !validID(in.ProblemID) {
		return model.TraceRecord{}, ErrNotFound
	}
	var exists bool
	if err := p.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM problems WHERE id=$1::uuid)`, in.ProblemID).Scan(&exists); err != nil {
		return model.TraceRecord{}, err
	}
	if !exists {
		return model.TraceRecord{}, ErrNotFound
	}
	row := p.db.QueryRowContext(ctx,
		`INSERT INTO traces (id, problem_id, problem_version, strategy, steps) VALUES ($1,$2::uuid,$3,$4,$5::jsonb) RETURNING `+traceCols,
		uuid.New(), in.ProblemID, in.ProblemVersion, in.Strategy, string(in.Steps))
	return scanTrace(row)
}

func (p *Postgres) GetTrace(ctx context.Context, id string) (model.TraceRecord, error) {
	if !validID(id) {
		return model.TraceRecord{}, ErrNotFound
	}
	return scanTrace(p.db.QueryRowContext(ctx, `SELECT `+traceCols+` FROM traces WHERE id=$1::uuid`, id))
}

func (p *Postgres) ListTraces(ctx context.Context, problemID, cursor string, limit int) ([]model.TraceRecord, string, error) {
	if _, err := p.GetProblem(ctx, problemID); err != nil {
		return nil, "", err
	}
	limit = clampLimit(limit)
	if cursor != "" && !validID(cursor) {
		return nil, "", fmt.Errorf("invalid cursor")
	}
	rows, err := p.db.QueryContext(ctx, `SELECT `+traceCols+` FROM traces
        WHERE problem_id=$1::uuid
          AND ($2 = '' OR (created_at, id) > (SELECT created_at, id FROM traces WHERE id = NULLIF($2,'')::uuid))
        ORDER BY created_at, id LIMIT $3`, problemID, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var out []model.TraceRecord
	for rows.Next() {
		tr, err := scanTrace(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, tr)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[limit-1].ID
	}
	return out, next, nil
}
