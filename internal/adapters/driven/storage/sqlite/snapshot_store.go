package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/custodia-labs/quizhunter/internal/core/domain"
	"github.com/custodia-labs/quizhunter/internal/core/ports/driven"
)

// snapshotStore implements driven.SnapshotStore.
type snapshotStore struct {
	store *Store
}

var _ driven.SnapshotStore = (*snapshotStore)(nil)

// Save replaces the stored snapshot in a single transaction.
func (s *snapshotStore) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", domain.ErrInvalidArgument)
	}
	if err := checkSnapshot(snapshot); err != nil {
		return err
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, table := range []string{"snapshot_postings", "snapshot_items", "snapshots"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	lex, vec := snapshot.Lexical, snapshot.Vector
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, build_id, created_at, lexical_k1, lexical_b, tokenizer,
			graph_m, ef_construction, ef_search, seed, dimension, entry_point, max_level, item_count)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		snapshot.BuildID,
		snapshot.CreatedAt.UTC().Format(time.RFC3339Nano),
		formatFloat(lex.Params.K1),
		formatFloat(lex.Params.B),
		lex.Params.Tokenizer,
		vec.Params.M,
		vec.Params.EfConstruction,
		vec.Params.EfSearch,
		strconv.FormatUint(vec.Params.Seed, 10),
		vec.Params.Dimension,
		vec.EntryPoint,
		vec.MaxLevel,
		len(snapshot.Items),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot header: %w", err)
	}

	itemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_items (idx, id, year, subject, group_id, group_context, stem,
			options, content, date, doc_length, level, vector, neighbors)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer itemStmt.Close()

	for i, item := range snapshot.Items {
		optionsJSON, err := json.Marshal(item.Options)
		if err != nil {
			return fmt.Errorf("marshalling options of item %s: %w", item.ID, err)
		}
		if _, err := itemStmt.ExecContext(ctx, i, item.ID, item.Year, item.Subject, item.GroupID,
			item.GroupContext, item.Stem, string(optionsJSON), item.Content, item.Date,
			lex.DocLengths[i], vec.Levels[i],
			float32SliceToBytes(vec.Vectors[i]), encodeNeighbors(vec.Neighbors[i])); err != nil {
			return fmt.Errorf("saving item %s: %w", item.ID, err)
		}
	}

	postingStmt, err := tx.PrepareContext(ctx, `INSERT INTO snapshot_postings (term, postings) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer postingStmt.Close()

	for term, postings := range lex.Postings {
		if _, err := postingStmt.ExecContext(ctx, term, encodePostings(postings)); err != nil {
			return fmt.Errorf("saving postings for %q: %w", term, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Load reads the stored snapshot.
func (s *snapshotStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	var (
		snap        domain.Snapshot
		createdAt   string
		k1, b, seed string
		itemCount   int
	)
	lex, vec := &snap.Lexical, &snap.Vector
	errMalformed := func(field string, err error) error {
		return fmt.Errorf("%w: stored snapshot field %s: %w", domain.ErrIndexMismatch, field, err)
	}

	row := s.store.db.QueryRowContext(ctx, `
		SELECT build_id, created_at, lexical_k1, lexical_b, tokenizer, graph_m, ef_construction,
			ef_search, seed, dimension, entry_point, max_level, item_count
		FROM snapshots WHERE id = 1
	`)
	if err := row.Scan(&snap.BuildID, &createdAt, &k1, &b, &lex.Params.Tokenizer,
		&vec.Params.M, &vec.Params.EfConstruction, &vec.Params.EfSearch, &seed,
		&vec.Params.Dimension, &vec.EntryPoint, &vec.MaxLevel, &itemCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("scanning snapshot header: %w", err)
	}

	var err error
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, errMalformed("created_at", err)
	}
	if lex.Params.K1, err = strconv.ParseFloat(k1, 64); err != nil {
		return nil, errMalformed("lexical_k1", err)
	}
	if lex.Params.B, err = strconv.ParseFloat(b, 64); err != nil {
		return nil, errMalformed("lexical_b", err)
	}
	if vec.Params.Seed, err = strconv.ParseUint(seed, 10, 64); err != nil {
		return nil, errMalformed("seed", err)
	}

	if err := s.loadItems(ctx, &snap, itemCount); err != nil {
		return nil, err
	}
	if err := s.loadPostings(ctx, lex); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *snapshotStore) loadItems(ctx context.Context, snap *domain.Snapshot, count int) error {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT idx, id, year, subject, group_id, group_context, stem, options, content, date,
			doc_length, level, vector, neighbors
		FROM snapshot_items ORDER BY idx
	`)
	if err != nil {
		return fmt.Errorf("querying snapshot items: %w", err)
	}
	defer rows.Close()

	snap.Items = make([]domain.Item, 0, count)
	snap.Lexical.DocLengths = make([]int, 0, count)
	snap.Vector.Levels = make([]int, 0, count)
	snap.Vector.Vectors = make([][]float32, 0, count)
	snap.Vector.Neighbors = make([][][]int32, 0, count)

	for rows.Next() {
		var (
			item                      domain.Item
			idx, docLen, level        int
			optionsJSON               string
			vectorBlob, neighborsBlob []byte
		)
		if err := rows.Scan(&idx, &item.ID, &item.Year, &item.Subject, &item.GroupID,
			&item.GroupContext, &item.Stem, &optionsJSON, &item.Content, &item.Date,
			&docLen, &level, &vectorBlob, &neighborsBlob); err != nil {
			return fmt.Errorf("scanning snapshot item: %w", err)
		}
		if idx != len(snap.Items) {
			return fmt.Errorf("%w: stored item index %d out of sequence", domain.ErrIndexMismatch, idx)
		}
		if err := json.Unmarshal([]byte(optionsJSON), &item.Options); err != nil {
			return fmt.Errorf("unmarshaling options of item %s: %w", item.ID, err)
		}
		neighbors, err := decodeNeighbors(neighborsBlob, level+1)
		if err != nil {
			return fmt.Errorf("%w: item %s: %w", domain.ErrIndexMismatch, item.ID, err)
		}

		snap.Items = append(snap.Items, item)
		snap.Lexical.DocLengths = append(snap.Lexical.DocLengths, docLen)
		snap.Vector.Levels = append(snap.Vector.Levels, level)
		snap.Vector.Vectors = append(snap.Vector.Vectors, bytesToFloat32Slice(vectorBlob))
		snap.Vector.Neighbors = append(snap.Vector.Neighbors, neighbors)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating snapshot items: %w", err)
	}

	if len(snap.Items) != count {
		return fmt.Errorf("%w: snapshot lists %d items, found %d", domain.ErrIndexMismatch, count, len(snap.Items))
	}
	return nil
}

func (s *snapshotStore) loadPostings(ctx context.Context, lex *domain.LexicalSnapshot) error {
	rows, err := s.store.db.QueryContext(ctx, `SELECT term, postings FROM snapshot_postings`)
	if err != nil {
		return fmt.Errorf("querying snapshot postings: %w", err)
	}
	defer rows.Close()

	lex.Postings = make(map[string][]domain.Posting)
	for rows.Next() {
		var (
			term string
			blob []byte
		)
		if err := rows.Scan(&term, &blob); err != nil {
			return fmt.Errorf("scanning postings: %w", err)
		}
		postings, err := decodePostings(blob)
		if err != nil {
			return fmt.Errorf("%w: postings for %q: %w", domain.ErrIndexMismatch, term, err)
		}
		lex.Postings[term] = postings
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating postings: %w", err)
	}
	return nil
}

// checkSnapshot rejects snapshots whose per-item arrays disagree in length.
func checkSnapshot(snap *domain.Snapshot) error {
	n := len(snap.Items)
	if len(snap.Lexical.DocLengths) != n || len(snap.Vector.Levels) != n ||
		len(snap.Vector.Vectors) != n || len(snap.Vector.Neighbors) != n {
		return fmt.Errorf("%w: snapshot has %d items, %d doc lengths, %d vectors, %d levels, %d neighbour lists",
			domain.ErrIndexMismatch, n, len(snap.Lexical.DocLengths), len(snap.Vector.Vectors),
			len(snap.Vector.Levels), len(snap.Vector.Neighbors))
	}
	return nil
}

// formatFloat writes the shortest text that parses back to exactly f.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// encodePostings writes uvarint (index delta, tf) pairs.
func encodePostings(postings []domain.Posting) []byte {
	buf := make([]byte, 0, len(postings)*2)
	prev := 0
	for _, p := range postings {
		buf = binary.AppendUvarint(buf, uint64(p.Index-prev)) //nolint:gosec // postings ascend
		buf = binary.AppendUvarint(buf, uint64(p.TF))         //nolint:gosec // tf is positive
		prev = p.Index
	}
	return buf
}

func decodePostings(data []byte) ([]domain.Posting, error) {
	var postings []domain.Posting
	prev := 0
	for len(data) > 0 {
		delta, n := binary.Uvarint(data)
		if n <= 0 {
			return nil, errors.New("truncated index delta")
		}
		data = data[n:]
		tf, n := binary.Uvarint(data)
		if n <= 0 {
			return nil, errors.New("truncated term frequency")
		}
		data = data[n:]
		prev += int(delta) //nolint:gosec // bounded by the item count

		postings = append(postings, domain.Posting{Index: prev, TF: int(tf)}) //nolint:gosec // small counts
	}
	return postings, nil
}
