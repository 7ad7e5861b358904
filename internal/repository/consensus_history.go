package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
)

// ClickHouseHistory implements HistoryStore for ClickHouse. The keyed
// stores only hold the latest record per {symbol, timeframe}; this
// archive keeps every published consensus for backtesting and audit.
type ClickHouseHistory struct {
	db    *sql.DB
	table string
}

// NewClickHouseHistory creates a ClickHouse consensus archive.
func NewClickHouseHistory(db *sql.DB, table string) domrepo.HistoryStore {
	return &ClickHouseHistory{db: db, table: table}
}

func (s *ClickHouseHistory) Archive(ctx context.Context, rec *models.ConsensusRecord) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, symbol, timeframe, label, confidence, buy_votes, sell_votes, hold_votes, sources) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q, historyArgs(rec)...)
	return err
}

func (s *ClickHouseHistory) ArchiveBatch(ctx context.Context, recs []*models.ConsensusRecord) error {
	if len(recs) == 0 {
		return nil
	}
	// Multi-row VALUES insert to reduce round-trips. Chunk size tuned
	// to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(recs); start += chunkSize {
		end := start + chunkSize
		if end > len(recs) {
			end = len(recs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, rec := range recs[start:end] {
			if rec == nil || rec.Symbol == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, historyArgs(rec)...)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, symbol, timeframe, label, confidence, buy_votes, sell_votes, hold_votes, sources) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseHistory) Query(ctx context.Context, symbol string, tf domrepo.Timeframe, from, to time.Time, limit int) ([]models.ConsensusRecord, error) {
	q := fmt.Sprintf("SELECT ts, symbol, timeframe, label, confidence, buy_votes, sell_votes, hold_votes FROM %s WHERE symbol = ? AND timeframe = ? AND ts >= ? AND ts <= ? ORDER BY ts DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ConsensusRecord
	for rows.Next() {
		var rec models.ConsensusRecord
		var buy, sell, hold int
		if err := rows.Scan(&rec.Timestamp, &rec.Symbol, &rec.Timeframe, &rec.Label, &rec.Confidence, &buy, &sell, &hold); err != nil {
			return nil, err
		}
		rec.Votes = map[models.Label]int{
			models.LabelBuy:  buy,
			models.LabelSell: sell,
			models.LabelHold: hold,
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *ClickHouseHistory) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func historyArgs(rec *models.ConsensusRecord) []interface{} {
	sources := make([]string, 0, len(rec.Sources))
	for src := range rec.Sources {
		sources = append(sources, src)
	}
	return []interface{}{
		rec.Timestamp,
		rec.Symbol,
		rec.Timeframe,
		string(rec.Label),
		rec.Confidence,
		rec.Votes[models.LabelBuy],
		rec.Votes[models.LabelSell],
		rec.Votes[models.LabelHold],
		sources,
	}
}
