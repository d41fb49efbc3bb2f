package repository

import (
	"context"
	"time"

	"github.com/bhzhangCST/Auto-Class-Assigner/internal/domain"
)

func (r *Repository) InsertAssignmentRecord(record *domain.AssignmentRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO assignment_records (session_id, grade, student_count, special_count, class_count, balance_score)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	return r.dbpool.QueryRowContext(ctx, query,
		record.SessionID,
		record.Grade,
		record.StudentCount,
		record.SpecialCount,
		record.ClassCount,
		record.BalanceScore,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *Repository) GetAllAssignmentRecords() ([]*domain.AssignmentRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, session_id, grade, student_count, special_count, class_count, balance_score, created_at
		FROM assignment_records
		ORDER BY created_at DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.AssignmentRecord, 0)
	for rows.Next() {
		record := &domain.AssignmentRecord{}
		dst := []any{
			&record.ID,
			&record.SessionID,
			&record.Grade,
			&record.StudentCount,
			&record.SpecialCount,
			&record.ClassCount,
			&record.BalanceScore,
			&record.CreatedAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *Repository) GetAssignmentRecordByID(id int64) (*domain.AssignmentRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, session_id, grade, student_count, special_count, class_count, balance_score, created_at
		FROM assignment_records
		WHERE id = $1
	`

	record := &domain.AssignmentRecord{}
	dst := []any{
		&record.ID,
		&record.SessionID,
		&record.Grade,
		&record.StudentCount,
		&record.SpecialCount,
		&record.ClassCount,
		&record.BalanceScore,
		&record.CreatedAt,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return record, nil
}
