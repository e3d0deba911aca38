package store

import (
	"context"
	"fmt"
	"time"
)

func (r *Events) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO session_events
		(sequence, timestamp, session_id, action, question_id, detail)
		VALUES (?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UnixMilli(), data.SessionID, data.Action, data.QuestionID, data.Detail,
	)
	if err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

// QuerySessionEvents returns the events of one session in the order they
// happened.
func (r *Events) QuerySessionEvents(ctx context.Context, sessionID string, opts QueryOpts) ([]SessionEventRecord, error) {
	where, args := opts.whereClause([]string{"session_id = ?"}, []any{sessionID})
	q := `SELECT id, sequence, timestamp, session_id, action, question_id, detail
		FROM session_events` + where + " ORDER BY sequence ASC"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query session events: %w", err)
	}
	defer rows.Close()

	var out []SessionEventRecord
	for rows.Next() {
		var rec SessionEventRecord
		var ts int64
		if err := rows.Scan(&rec.ID, &rec.Sequence, &ts, &rec.SessionID, &rec.Action, &rec.QuestionID, &rec.Detail); err != nil {
			return nil, fmt.Errorf("scan session event: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}
