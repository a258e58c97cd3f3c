package onboarding

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
	engine "github.com/Premm1996/Truehire-sub004/internal/onboarding"
)

type PgxPoolIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// querier — pool либо открытая транзакция.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository — хранилище онбординга: onboarding_stage_state плюс четыре
// сопутствующие таблицы. Методы, меняющие несколько таблиц, выполняются
// в одной транзакции.
type Repository struct {
	pool         PgxPoolIface
	cooldownSecs float64
}

func NewRepository(pool PgxPoolIface, policy engine.RetryPolicy) *Repository {
	return &Repository{
		pool:         pool,
		cooldownSecs: policy.Cooldown.Seconds(),
	}
}

// Запись состояния — единый атомарный upsert: retry_after и failed_at
// проставляются при status=FAILED, completed_at — один раз при COMPLETED.
const upsertStageStateSQL = `
insert into onboarding_stage_state
  (subject_id, stage, status, failed_at_stage, failed_reason, failed_at, retry_after, completed_at, updated_at)
values
  (@subject_id, @stage, @status, @failed_at_stage, @failed_reason,
   case when @status = 'FAILED' then now() end,
   case when @status = 'FAILED' then now() + make_interval(secs => @cooldown_secs) end,
   case when @stage = 'COMPLETED' then now() end,
   now())
on conflict (subject_id) do update set
  stage           = excluded.stage,
  status          = excluded.status,
  failed_at_stage = excluded.failed_at_stage,
  failed_reason   = excluded.failed_reason,
  failed_at       = excluded.failed_at,
  retry_after     = excluded.retry_after,
  completed_at    = coalesce(onboarding_stage_state.completed_at, excluded.completed_at),
  updated_at      = now()
returning subject_id, stage, status, failed_at_stage, failed_reason, failed_at, retry_after, completed_at, updated_at;
`

func (r *Repository) upsertStageState(ctx context.Context, q querier, subjectID string, change engine.StageChange) (*dto.StageState, error) {
	args := pgx.NamedArgs{
		"subject_id":      subjectID,
		"stage":           string(change.Stage),
		"status":          string(change.Status),
		"failed_at_stage": stagePtr(change.FailedAtStage),
		"failed_reason":   change.FailedReason,
		"cooldown_secs":   r.cooldownSecs,
	}

	return scanStageState(q.QueryRow(ctx, upsertStageStateSQL, args))
}

func (r *Repository) GetStageState(ctx context.Context, subjectID string) (*dto.StageState, error) {
	query := `
select subject_id, stage, status, failed_at_stage, failed_reason, failed_at, retry_after, completed_at, updated_at
from onboarding_stage_state
where subject_id = $1;
`
	st, err := scanStageState(r.pool.QueryRow(ctx, query, subjectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, err
	}

	return st, nil
}

func (r *Repository) SetStageState(ctx context.Context, subjectID string, change engine.StageChange) (*dto.StageState, error) {
	st, err := r.upsertStageState(ctx, r.pool, subjectID, change)
	if err != nil {
		return nil, fmt.Errorf("upsertStageState: %w", err)
	}

	return st, nil
}

// StartInterview — одна транзакция: n pending-раундов + upsert состояния.
// Повторный старт упирается в uq(subject_id, round_number).
func (r *Repository) StartInterview(ctx context.Context, subjectID string, rounds int, change engine.StageChange) (*dto.StageState, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pool.Begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
insert into interview_rounds (subject_id, round_number, status, score)
select $1, gs, 'pending', 0
from generate_series(1, $2) as gs;
`
	if _, err := tx.Exec(ctx, query, subjectID, rounds); err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return nil, dto.ErrAlreadyExists
		}

		return nil, fmt.Errorf("tx.Exec: %w", err)
	}

	st, err := r.upsertStageState(ctx, tx, subjectID, change)
	if err != nil {
		return nil, fmt.Errorf("upsertStageState: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("tx.Commit: %w", err)
	}

	return st, nil
}

func (r *Repository) ListRounds(ctx context.Context, subjectID string) ([]dto.InterviewRound, error) {
	query := `
select id, subject_id, round_number, status, score, completed_at
from interview_rounds
where subject_id = $1
order by round_number;
`
	rows, err := r.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var out []dto.InterviewRound
	for rows.Next() {
		var rnd dto.InterviewRound

		err = rows.Scan(&rnd.ID, &rnd.SubjectID, &rnd.RoundNumber, &rnd.Status, &rnd.Score, &rnd.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		out = append(out, rnd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}

func (r *Repository) GetRound(ctx context.Context, subjectID string, roundNumber int) (*dto.InterviewRound, error) {
	query := `
select id, subject_id, round_number, status, score, completed_at
from interview_rounds
where subject_id = $1 and round_number = $2;
`
	var rnd dto.InterviewRound

	err := r.pool.QueryRow(ctx, query, subjectID, roundNumber).
		Scan(&rnd.ID, &rnd.SubjectID, &rnd.RoundNumber, &rnd.Status, &rnd.Score, &rnd.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return &rnd, nil
}

// FinishRound записывает итог раунда и, если передан change, в той же
// транзакции меняет состояние этапа.
func (r *Repository) FinishRound(ctx context.Context, subjectID string, round engine.RoundUpdate, change *engine.StageChange) (*dto.StageState, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pool.Begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
update interview_rounds set
  status       = $3,
  score        = $4,
  completed_at = now()
where subject_id = $1 and round_number = $2 and status = 'pending';
`
	tag, err := tx.Exec(ctx, query, subjectID, round.RoundNumber, string(round.Status), round.Score)
	if err != nil {
		return nil, fmt.Errorf("tx.Exec: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, dto.ErrNotFound
	}

	var st *dto.StageState
	if change != nil {
		st, err = r.upsertStageState(ctx, tx, subjectID, *change)
	} else {
		st, err = r.stageStateTx(ctx, tx, subjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("stage state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("tx.Commit: %w", err)
	}

	return st, nil
}

func (r *Repository) AddDocument(ctx context.Context, doc dto.Document, change *engine.StageChange) (*dto.Document, *dto.StageState, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("pool.Begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
insert into onboarding_documents (subject_id, document_type, file_path, file_name, uploaded_at)
values (@subject_id, @document_type, @file_path, @file_name, now())
returning id, uploaded_at;
`
	args := pgx.NamedArgs{
		"subject_id":    doc.SubjectID,
		"document_type": doc.DocumentType,
		"file_path":     doc.FilePath,
		"file_name":     doc.FileName,
	}

	if err := tx.QueryRow(ctx, query, args).Scan(&doc.ID, &doc.UploadedAt); err != nil {
		return nil, nil, fmt.Errorf("row.Scan: %w", err)
	}

	var st *dto.StageState
	if change != nil {
		st, err = r.upsertStageState(ctx, tx, doc.SubjectID, *change)
	} else {
		st, err = r.stageStateTx(ctx, tx, doc.SubjectID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("stage state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("tx.Commit: %w", err)
	}

	return &doc, st, nil
}

func (r *Repository) ListDocuments(ctx context.Context, subjectID string) ([]dto.Document, error) {
	query := `
select id, subject_id, document_type, file_path, file_name, uploaded_at
from onboarding_documents
where subject_id = $1
order by uploaded_at, id;
`
	rows, err := r.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var out []dto.Document
	for rows.Next() {
		var d dto.Document

		err = rows.Scan(&d.ID, &d.SubjectID, &d.DocumentType, &d.FilePath, &d.FileName, &d.UploadedAt)
		if err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}

func (r *Repository) DistinctDocumentTypes(ctx context.Context, subjectID string) ([]string, error) {
	query := `
select distinct document_type
from onboarding_documents
where subject_id = $1;
`
	rows, err := r.pool.Query(ctx, query, subjectID)
	if err != nil {
		return nil, fmt.Errorf("pool.Query: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return out, nil
}

func (r *Repository) IssueOffer(ctx context.Context, offer dto.OfferLetter, change engine.StageChange) (*dto.OfferLetter, *dto.StageState, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("pool.Begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
insert into offer_letters (subject_id, status, file_path, issued_by, issued_at)
values (@subject_id, @status, @file_path, @issued_by, now())
returning id, issued_at;
`
	args := pgx.NamedArgs{
		"subject_id": offer.SubjectID,
		"status":     string(offer.Status),
		"file_path":  offer.FilePath,
		"issued_by":  offer.IssuedBy,
	}

	if err := tx.QueryRow(ctx, query, args).Scan(&offer.ID, &offer.IssuedAt); err != nil {
		return nil, nil, fmt.Errorf("row.Scan: %w", err)
	}

	st, err := r.upsertStageState(ctx, tx, offer.SubjectID, change)
	if err != nil {
		return nil, nil, fmt.Errorf("upsertStageState: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("tx.Commit: %w", err)
	}

	return &offer, st, nil
}

func (r *Repository) SignLatestPendingOffer(ctx context.Context, subjectID, signedFilePath string) (*dto.OfferLetter, error) {
	query := `
update offer_letters set
  status           = 'signed',
  signed_file_path = $2,
  signed_at        = now()
where id = (
  select id from offer_letters
  where subject_id = $1 and status = 'pending'
  order by issued_at desc, id desc
  limit 1
)
returning id, subject_id, status, file_path, signed_file_path, issued_by, issued_at, signed_at;
`
	var o dto.OfferLetter

	err := r.pool.QueryRow(ctx, query, subjectID, signedFilePath).
		Scan(&o.ID, &o.SubjectID, &o.Status, &o.FilePath, &o.SignedFilePath, &o.IssuedBy, &o.IssuedAt, &o.SignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return &o, nil
}

func (r *Repository) LatestOffer(ctx context.Context, subjectID string) (*dto.OfferLetter, error) {
	query := `
select id, subject_id, status, file_path, signed_file_path, issued_by, issued_at, signed_at
from offer_letters
where subject_id = $1
order by issued_at desc, id desc
limit 1;
`
	var o dto.OfferLetter

	err := r.pool.QueryRow(ctx, query, subjectID).
		Scan(&o.ID, &o.SubjectID, &o.Status, &o.FilePath, &o.SignedFilePath, &o.IssuedBy, &o.IssuedAt, &o.SignedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return &o, nil
}

func (r *Repository) CreateIDCard(ctx context.Context, card dto.IDCard, change engine.StageChange) (*dto.IDCard, *dto.StageState, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("pool.Begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
insert into id_cards (subject_id, card_number, file_path, generated_at)
values ($1, $2, $3, now())
returning id, generated_at;
`
	if err := tx.QueryRow(ctx, query, card.SubjectID, card.CardNumber, card.FilePath).Scan(&card.ID, &card.GeneratedAt); err != nil {
		var pgerr *pgconn.PgError
		if errors.As(err, &pgerr) && pgerr.Code == "23505" {
			return nil, nil, dto.ErrAlreadyExists
		}

		return nil, nil, fmt.Errorf("row.Scan: %w", err)
	}

	st, err := r.upsertStageState(ctx, tx, card.SubjectID, change)
	if err != nil {
		return nil, nil, fmt.Errorf("upsertStageState: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("tx.Commit: %w", err)
	}

	return &card, st, nil
}

func (r *Repository) LatestIDCard(ctx context.Context, subjectID string) (*dto.IDCard, error) {
	query := `
select id, subject_id, card_number, file_path, generated_at
from id_cards
where subject_id = $1
order by generated_at desc, id desc
limit 1;
`
	var c dto.IDCard

	err := r.pool.QueryRow(ctx, query, subjectID).
		Scan(&c.ID, &c.SubjectID, &c.CardNumber, &c.FilePath, &c.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, fmt.Errorf("row.Scan: %w", err)
	}

	return &c, nil
}

// ResetOnboarding — полный перезапуск: удаление всех сопутствующих строк
// и возврат состояния на начальный этап, всё в одной транзакции.
// completed_at при этом очищается.
func (r *Repository) ResetOnboarding(ctx context.Context, subjectID string, change engine.StageChange) (*dto.StageState, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pool.Begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, table := range []string{"interview_rounds", "onboarding_documents", "offer_letters", "id_cards"} {
		if _, err := tx.Exec(ctx, `delete from `+table+` where subject_id = $1`, subjectID); err != nil {
			return nil, fmt.Errorf("delete %s: %w", table, err)
		}
	}

	query := `
insert into onboarding_stage_state (subject_id, stage, status, updated_at)
values ($1, $2, $3, now())
on conflict (subject_id) do update set
  stage           = excluded.stage,
  status          = excluded.status,
  failed_at_stage = null,
  failed_reason   = null,
  failed_at       = null,
  retry_after     = null,
  completed_at    = null,
  updated_at      = now()
returning subject_id, stage, status, failed_at_stage, failed_reason, failed_at, retry_after, completed_at, updated_at;
`
	st, err := scanStageState(tx.QueryRow(ctx, query, subjectID, string(change.Stage), string(change.Status)))
	if err != nil {
		return nil, fmt.Errorf("scanStageState: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("tx.Commit: %w", err)
	}

	return st, nil
}

func (r *Repository) stageStateTx(ctx context.Context, q querier, subjectID string) (*dto.StageState, error) {
	query := `
select subject_id, stage, status, failed_at_stage, failed_reason, failed_at, retry_after, completed_at, updated_at
from onboarding_stage_state
where subject_id = $1;
`
	st, err := scanStageState(q.QueryRow(ctx, query, subjectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, dto.ErrNotFound
		}

		return nil, err
	}

	return st, nil
}

func scanStageState(row pgx.Row) (*dto.StageState, error) {
	var (
		st            dto.StageState
		stage, status string
		failedAtStage *string
	)

	err := row.Scan(
		&st.SubjectID,
		&stage,
		&status,
		&failedAtStage,
		&st.FailedReason,
		&st.FailedAt,
		&st.RetryAfter,
		&st.CompletedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.Stage = dto.Stage(stage)
	st.Status = dto.Status(status)
	if failedAtStage != nil {
		fs := dto.Stage(*failedAtStage)
		st.FailedAtStage = &fs
	}

	return &st, nil
}

func stagePtr(s *dto.Stage) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
