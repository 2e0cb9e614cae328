// Package migrate aplica los scripts *_up.sql / *_down.sql en orden, cada uno
// como un único Exec a través del gateway.
package migrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/dropDatabas3/usuarios-admin/internal/observability/logger"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

var ErrUnknownDirection = errors.New("migrate: unknown direction (use up | down)")

// Execer es el subconjunto del gateway que usa el runner.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Recorder recibe el resultado de cada script (métricas).
type Recorder interface {
	RecordMigration(direction, result string)
}

type Runner struct {
	db   Execer
	fsys fs.FS
	dir  string
	rec  Recorder
	log  *zap.Logger
}

type Option func(*Runner)

// WithDir cambia el subdirectorio dentro de fsys (por defecto ".").
func WithDir(dir string) Option { return func(r *Runner) { r.dir = dir } }

func WithRecorder(rec Recorder) Option { return func(r *Runner) { r.rec = rec } }

func WithLogger(l *zap.Logger) Option { return func(r *Runner) { r.log = l } }

func New(db Execer, fsys fs.FS, opts ...Option) *Runner {
	r := &Runner{db: db, fsys: fsys, dir: ".", log: logger.Named("migrate")}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Plan lista los scripts a ejecutar: up en orden ascendente, down en orden
// inverso. steps > 0 limita la cantidad.
func (r *Runner) Plan(dir Direction, steps int) ([]string, error) {
	var suffix string
	switch dir {
	case Up:
		suffix = "_up.sql"
	case Down:
		suffix = "_down.sql"
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDirection, dir)
	}

	entries, err := fs.ReadDir(r.fsys, r.dir)
	if err != nil {
		return nil, fmt.Errorf("migrate: list %s: %w", r.dir, err)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), suffix) {
			files = append(files, path.Join(r.dir, e.Name()))
		}
	}
	slices.Sort(files)
	if dir == Down {
		slices.Reverse(files)
	}
	if steps > 0 && steps < len(files) {
		files = files[:steps]
	}
	return files, nil
}

// Run ejecuta el plan y se detiene en el primer error. Devuelve los scripts aplicados.
func (r *Runner) Run(ctx context.Context, dir Direction, steps int) ([]string, error) {
	files, err := r.Plan(dir, steps)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		r.log.Info("no migrations found, nothing to do", logger.String("direction", string(dir)))
		return nil, nil
	}

	r.log.Info("applying migrations", logger.String("direction", string(dir)), logger.Count(len(files)))
	applied := make([]string, 0, len(files))
	for _, f := range files {
		if err := r.apply(ctx, dir, f); err != nil {
			return applied, err
		}
		applied = append(applied, f)
	}
	r.log.Info("migrations completed", logger.String("direction", string(dir)), logger.Count(len(applied)))
	return applied, nil
}

func (r *Runner) apply(ctx context.Context, dir Direction, file string) error {
	b, err := fs.ReadFile(r.fsys, file)
	if err != nil {
		return fmt.Errorf("migrate: read %s: %w", file, err)
	}

	start := time.Now()
	if _, err := r.db.Exec(ctx, string(b)); err != nil {
		r.record(dir, "failed")
		r.log.Error("migration failed", logger.File(path.Base(file)), logger.Err(err))
		return fmt.Errorf("migrate: exec %s: %w", path.Base(file), err)
	}
	r.record(dir, "applied")
	r.log.Info("migration applied",
		logger.File(path.Base(file)),
		logger.DurationMs(time.Since(start).Milliseconds()),
	)
	return nil
}

func (r *Runner) record(dir Direction, result string) {
	if r.rec != nil {
		r.rec.RecordMigration(string(dir), result)
	}
}
