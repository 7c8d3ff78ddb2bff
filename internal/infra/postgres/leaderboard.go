package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quizboard-service/internal/domain"
)

const (
	maxRecordRetries = 16
	retryBackoff     = 5 * time.Millisecond
)

// RecordAttempt applies the attempt to the identity's entry with optimistic
// concurrency: the row is rewritten only if its version is unchanged, and a
// lost race is retried against the fresh row.
func (s *Store) RecordAttempt(ctx context.Context, attempt domain.Attempt) (domain.LeaderboardEntry, error) {
	key := attempt.Identity().Key()
	for i := 0; i < maxRecordRetries; i++ {
		if i > 0 {
			if err := backoff(ctx, i); err != nil {
				return domain.LeaderboardEntry{}, err
			}
		}
		now := s.now()
		current := new(entryRow)
		err := s.db.NewSelect().
			Model(current).
			Where("le.identity_key = ?", key).
			Where("le.quiz_id = ?", attempt.QuizID).
			Scan(ctx)
		if isNoRows(err) {
			entry, ok, err := s.insertEntry(ctx, attempt, now)
			if err != nil {
				return domain.LeaderboardEntry{}, err
			}
			if ok {
				return entry, nil
			}
			continue
		}
		if err != nil {
			return domain.LeaderboardEntry{}, fmt.Errorf("load leaderboard entry: %w", err)
		}

		next := current.toDomain().Apply(attempt, now)
		next.Version = current.Version + 1
		res, err := s.db.NewUpdate().
			Model(newEntryRow(next)).
			Column("best_score", "best_percentage", "best_time", "attempts_count", "version", "last_attempt_at").
			Where("id = ?", current.ID).
			Where("version = ?", current.Version).
			Exec(ctx)
		if err != nil {
			return domain.LeaderboardEntry{}, fmt.Errorf("update leaderboard entry: %w", err)
		}
		if affected(res) == 1 {
			next.Username = attempt.Username
			return next, nil
		}
	}
	return domain.LeaderboardEntry{}, domain.ErrLeaderboardConflict
}

func backoff(ctx context.Context, attempt int) error {
	timer := time.NewTimer(time.Duration(attempt) * retryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// insertEntry creates the first entry for the attempt's identity. It reports
// false when a concurrent writer created the row first.
func (s *Store) insertEntry(ctx context.Context, attempt domain.Attempt, now time.Time) (domain.LeaderboardEntry, bool, error) {
	entry := domain.NewLeaderboardEntry(attempt, now)
	entry.Version = 1
	row := newEntryRow(entry)
	res, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (identity_key, quiz_id) DO NOTHING").
		Returning("id").
		Exec(ctx)
	if isNoRows(err) {
		return domain.LeaderboardEntry{}, false, nil
	}
	if err != nil {
		return domain.LeaderboardEntry{}, false, fmt.Errorf("insert leaderboard entry: %w", err)
	}
	if affected(res) == 0 || row.ID == 0 {
		return domain.LeaderboardEntry{}, false, nil
	}
	entry.ID = row.ID
	return entry, true, nil
}

func (s *Store) QuizEntries(ctx context.Context, quizID int64, limit int) ([]domain.LeaderboardEntry, error) {
	var rows []*entryRow
	q := s.db.NewSelect().
		Model(&rows).
		Relation("User").
		Where("le.quiz_id = ?", quizID).
		OrderExpr("le.best_percentage DESC, le.best_score DESC, le.best_time ASC, le.id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list leaderboard entries: %w", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toDomain())
	}
	return entries, nil
}

const globalStandingsSQL = `
SELECT COALESCE(u.username, NULLIF(le.guest_name, ''), $1) AS display_name,
       SUM(le.best_score) AS total_score,
       COUNT(le.id) AS quizzes_completed,
       AVG(le.best_percentage)::float8 AS average_percentage
FROM leaderboard_entries le
LEFT JOIN users u ON u.id = le.user_id
GROUP BY le.identity_key, u.username, le.guest_name
ORDER BY total_score DESC, average_percentage DESC, MIN(le.id) ASC
LIMIT $2`

// GlobalStandings aggregates best results per identity across quizzes.
func (s *Store) GlobalStandings(ctx context.Context, limit int) ([]domain.GlobalStanding, error) {
	if limit <= 0 {
		limit = 1 << 30
	}
	rows, err := s.pool.Query(ctx, globalStandingsSQL, domain.AnonymousName, limit)
	if err != nil {
		return nil, fmt.Errorf("global standings: %w", err)
	}
	defer rows.Close()

	standings := make([]domain.GlobalStanding, 0)
	for rows.Next() {
		var st domain.GlobalStanding
		var total int64
		if err := rows.Scan(&st.DisplayName, &total, &st.QuizzesCompleted, &st.AveragePercentage); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		st.TotalScore = int(total)
		standings = append(standings, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("global standings: %w", err)
	}
	return standings, nil
}

// ReplaceQuizEntries swaps the quiz's entries for the given set atomically.
func (s *Store) ReplaceQuizEntries(ctx context.Context, quizID int64, entries []domain.LeaderboardEntry) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*entryRow)(nil)).Where("quiz_id = ?", quizID).Exec(ctx); err != nil {
			return fmt.Errorf("clear leaderboard: %w", err)
		}
		if len(entries) == 0 {
			return nil
		}
		rows := make([]*entryRow, 0, len(entries))
		for _, e := range entries {
			e.ID = 0
			e.QuizID = quizID
			e.Version = 1
			rows = append(rows, newEntryRow(e))
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("insert leaderboard: %w", err)
		}
		return nil
	})
}
