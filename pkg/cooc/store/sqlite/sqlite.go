package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"

	_ "modernc.org/sqlite"

	"github.com/cognicore/cooc/pkg/cooc/internalerr"
	"github.com/cognicore/cooc/pkg/cooc/pmi"
	"github.com/cognicore/cooc/pkg/cooc/result"
	"github.com/cognicore/cooc/pkg/cooc/store"
	"github.com/cognicore/cooc/pkg/cooc/vocab"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db   *sql.DB
	calc *pmi.Calculator
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:   db,
		calc: pmi.NewCalculator(1e-9),
	}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS vocabulary (
	idx INTEGER PRIMARY KEY,
	label TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS pairs (
	a INTEGER NOT NULL,
	b INTEGER NOT NULL,
	weight REAL NOT NULL,
	PRIMARY KEY(a, b)
);

CREATE INDEX IF NOT EXISTS pairs_b ON pairs(b);

CREATE TABLE IF NOT EXISTS marginals (
	idx INTEGER PRIMARY KEY,
	weight REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value REAL NOT NULL
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// ReplaceVocabulary stores labels; a label's position is its index.
func (s *sqliteStore) ReplaceVocabulary(ctx context.Context, labels []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vocabulary`); err != nil {
		return err
	}

	v := vocab.New(labels)
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vocabulary (idx, label) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, label := range v.Labels() {
		if _, err := stmt.ExecContext(ctx, i, label); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Vocabulary loads the stored vocabulary.
func (s *sqliteStore) Vocabulary(ctx context.Context) (*vocab.Vocab, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT label FROM vocabulary ORDER BY idx`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vocab.New(labels), nil
}

// ImportPairs replaces the pair table and recomputes the marginals in one
// transaction.
func (s *sqliteStore) ImportPairs(ctx context.Context, pairs iter.Seq2[result.Pair, error]) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, q := range []string{`DELETE FROM pairs`, `DELETE FROM marginals`, `DELETE FROM meta`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return 0, err
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO pairs (a, b, weight) VALUES (?, ?, ?)
ON CONFLICT(a, b) DO UPDATE SET weight = weight + excluded.weight`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	var n int64
	for p, err := range pairs {
		if err != nil {
			return n, err
		}
		if _, err := stmt.ExecContext(ctx, p.First.Index, p.Second.Index, p.Weight); err != nil {
			return n, fmt.Errorf("insert pair (%d, %d): %w", p.First.Index, p.Second.Index, err)
		}
		n++
	}

	// Marginals over the merged table, so repeated records count once.
	marginals := pmi.NewMarginals()
	rows, err := tx.QueryContext(ctx, `SELECT a, b, weight FROM pairs`)
	if err != nil {
		return n, err
	}
	for rows.Next() {
		var a, b int
		var w float64
		if err := rows.Scan(&a, &b, &w); err != nil {
			rows.Close()
			return n, err
		}
		marginals.Add(a, b, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return n, err
	}

	mstmt, err := tx.PrepareContext(ctx, `INSERT INTO marginals (idx, weight) VALUES (?, ?)`)
	if err != nil {
		return n, err
	}
	defer mstmt.Close()

	var insertErr error
	marginals.All(func(i int, w float64) {
		if insertErr == nil {
			_, insertErr = mstmt.ExecContext(ctx, i, w)
		}
	})
	if insertErr != nil {
		return n, insertErr
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('total', ?)`, marginals.Total()); err != nil {
		return n, err
	}
	return n, tx.Commit()
}

func (s *sqliteStore) indexOf(ctx context.Context, token string) (int, error) {
	var idx int
	err := s.db.QueryRowContext(ctx, `SELECT idx FROM vocabulary WHERE label = ?`, token).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: token %q", internalerr.ErrNotFound, token)
	}
	return idx, err
}

// pairWeight sums both orderings of (a, b).
func (s *sqliteStore) pairWeight(ctx context.Context, a, b int) (float64, bool, error) {
	var (
		w   sql.NullFloat64
		cnt int
	)
	err := s.db.QueryRowContext(ctx, `
SELECT SUM(weight), COUNT(*) FROM pairs
WHERE (a = ? AND b = ?) OR (a = ? AND b = ?)`, a, b, b, a).Scan(&w, &cnt)
	if err != nil {
		return 0, false, err
	}
	if cnt == 0 {
		return 0, false, nil
	}
	return w.Float64, true, nil
}

// PairWeight returns the weight of a pair, summed over both orderings.
func (s *sqliteStore) PairWeight(ctx context.Context, a, b string) (float64, bool, error) {
	ia, err := s.indexOf(ctx, a)
	if err != nil {
		return 0, false, err
	}
	ib, err := s.indexOf(ctx, b)
	if err != nil {
		return 0, false, err
	}
	return s.pairWeight(ctx, ia, ib)
}

func (s *sqliteStore) marginal(ctx context.Context, idx int) (float64, error) {
	var w float64
	err := s.db.QueryRowContext(ctx, `SELECT weight FROM marginals WHERE idx = ?`, idx).Scan(&w)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return w, err
}

func (s *sqliteStore) total(ctx context.Context) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'total'`).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return total, err
}

// PMI scores a pair against the stored marginals.
func (s *sqliteStore) PMI(ctx context.Context, a, b string) (float64, bool, error) {
	ia, err := s.indexOf(ctx, a)
	if err != nil {
		return 0, false, err
	}
	ib, err := s.indexOf(ctx, b)
	if err != nil {
		return 0, false, err
	}

	w, ok, err := s.pairWeight(ctx, ia, ib)
	if err != nil || !ok {
		return 0, false, err
	}
	wa, err := s.marginal(ctx, ia)
	if err != nil {
		return 0, false, err
	}
	wb, err := s.marginal(ctx, ib)
	if err != nil {
		return 0, false, err
	}
	total, err := s.total(ctx)
	if err != nil {
		return 0, false, err
	}
	return s.calc.PMI(w, wa, wb, total), true, nil
}

// TopNeighbors ranks the partners of token by PMI.
func (s *sqliteStore) TopNeighbors(ctx context.Context, token string, k int) ([]pmi.Neighbor, error) {
	idx, err := s.indexOf(ctx, token)
	if err != nil {
		return nil, err
	}
	wa, err := s.marginal(ctx, idx)
	if err != nil {
		return nil, err
	}
	total, err := s.total(ctx)
	if err != nil {
		return nil, err
	}

	const query = `
SELECT p.other, COALESCE(v.label, ''), SUM(p.weight), COALESCE(m.weight, 0)
FROM (
	SELECT b AS other, weight FROM pairs WHERE a = ?1
	UNION ALL
	SELECT a AS other, weight FROM pairs WHERE b = ?1
) p
LEFT JOIN vocabulary v ON v.idx = p.other
LEFT JOIN marginals m ON m.idx = p.other
GROUP BY p.other
`
	rows, err := s.db.QueryContext(ctx, query, idx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pmi.Neighbor
	for rows.Next() {
		var (
			n  pmi.Neighbor
			wb float64
		)
		if err := rows.Scan(&n.Index, &n.Label, &n.Weight, &wb); err != nil {
			return nil, err
		}
		n.PMI = s.calc.PMI(n.Weight, wa, wb, total)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pmi.Rank(out, k), nil
}

// Stats summarizes the stored table.
func (s *sqliteStore) Stats(ctx context.Context) (store.Stats, error) {
	var st store.Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vocabulary`).Scan(&st.Elements); err != nil {
		return st, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pairs`).Scan(&st.Pairs); err != nil {
		return st, err
	}
	total, err := s.total(ctx)
	if err != nil {
		return st, err
	}
	st.TotalWeight = total
	return st, nil
}
