package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/gre-quiz-bot/internal/domain/entities"
	"github.com/aliskhannn/gre-quiz-bot/internal/infra/postgres"
)

// CorpusRepository loads word groups from PostgreSQL.
//
//	corpus_entries(group_name text, position int, word text, meaning text)
//	fallback_entries(position int, word text, meaning text)
type CorpusRepository struct {
	transactor *postgres.Transactor
}

// NewCorpusRepository creates a new CorpusRepository.
func NewCorpusRepository(transactor *postgres.Transactor) *CorpusRepository {
	return &CorpusRepository{transactor: transactor}
}

// Load reads every group and the fallback list in one read-only transaction.
// An empty fallback_entries table means there is no fallback list.
func (r *CorpusRepository) Load(ctx context.Context) (entities.CorpusData, error) {
	var data entities.CorpusData

	err := r.transactor.WithinReadOnlyTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		groups, err := r.groups(ctx, tx)
		if err != nil {
			return err
		}

		fallback, err := r.fallback(ctx, tx)
		if err != nil {
			return err
		}

		data = entities.CorpusData{
			Groups:      groups,
			Fallback:    fallback,
			HasFallback: len(fallback) > 0,
		}
		return nil
	})
	if err != nil {
		return entities.CorpusData{}, err
	}

	return data, nil
}

func (r *CorpusRepository) groups(ctx context.Context, db postgres.DBTX) ([]entities.Group, error) {
	query := `
		SELECT group_name, word, meaning
		FROM corpus_entries
		ORDER BY group_name, position
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select corpus entries: %w", err)
	}
	defer rows.Close()

	var groups []entities.Group
	for rows.Next() {
		var name string
		var e entities.WordEntry
		if err := rows.Scan(&name, &e.Word, &e.Meaning); err != nil {
			return nil, fmt.Errorf("scan corpus entry: %w", err)
		}

		if n := len(groups); n == 0 || groups[n-1].Name != name {
			groups = append(groups, entities.Group{Name: name})
		}
		last := &groups[len(groups)-1]
		last.Entries = append(last.Entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate corpus entries: %w", err)
	}

	return groups, nil
}

func (r *CorpusRepository) fallback(ctx context.Context, db postgres.DBTX) ([]entities.WordEntry, error) {
	query := `
		SELECT word, meaning
		FROM fallback_entries
		ORDER BY position
	`

	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select fallback entries: %w", err)
	}
	defer rows.Close()

	var entries []entities.WordEntry
	for rows.Next() {
		var e entities.WordEntry
		if err := rows.Scan(&e.Word, &e.Meaning); err != nil {
			return nil, fmt.Errorf("scan fallback entry: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fallback entries: %w", err)
	}

	return entries, nil
}
