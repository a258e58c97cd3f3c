package questions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

type PgxPoolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository — банк вопросов интервью (ключи ответов по раундам).
type Repository struct {
	pool PgxPoolIface
}

func NewRepository(pool PgxPoolIface) *Repository {
	return &Repository{pool: pool}
}

// AnswerKey возвращает вопросы раунда в порядке позиций. Пустой срез —
// ключ для раунда не заведён.
func (r *Repository) AnswerKey(ctx context.Context, roundNumber int) ([]dto.InterviewQuestion, error) {
	query := `
select round_number, position, question, correct_answer, points
from interview_questions
where round_number = $1
order by position;
`
	rows, err := r.pool.Query(ctx, query, roundNumber)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var out []dto.InterviewQuestion
	for rows.Next() {
		var q dto.InterviewQuestion

		err = rows.Scan(&q.RoundNumber, &q.Position, &q.Question, &q.CorrectAnswer, &q.Points)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}

// Upsert заменяет вопрос на позиции раунда (наполнение банка — админка).
func (r *Repository) Upsert(ctx context.Context, q dto.InterviewQuestion) error {
	query := `
insert into interview_questions (round_number, position, question, correct_answer, points)
values (@round_number, @position, @question, @correct_answer, @points)
on conflict (round_number, position) do update set
  question       = excluded.question,
  correct_answer = excluded.correct_answer,
  points         = excluded.points;
`
	args := pgx.NamedArgs{
		"round_number":   q.RoundNumber,
		"position":       q.Position,
		"question":       q.Question,
		"correct_answer": q.CorrectAnswer,
		"points":         q.Points,
	}

	if _, err := r.pool.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("pool.Exec: %w", err)
	}

	return nil
}
