package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/loom-ml/loom/pkg/conn/db/postgres/pool"
	"github.com/loom-ml/loom/pkg/domain"
	kpgerr "github.com/loom-ml/loom/pkg/domain/errors/dberrors/postgres"
	kdb "github.com/loom-ml/loom/pkg/domain/tracking/db"
	xe "github.com/loom-ml/loom/pkg/errors"
)

type trackingDBPostgres struct {
	pool kpool.Pool
	runs kdb.RunInterface
}

var _ kdb.Interface = &trackingDBPostgres{}

// New connects to the tracker database and ensures the schema exists.
func New(ctx context.Context, url string) (kdb.Interface, error) {
	base, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	p := kpool.Wrap(base)
	if err := ensureSchema(ctx, p); err != nil {
		p.Close()
		return nil, xe.Wrap(err)
	}

	return &trackingDBPostgres{
		pool: p,
		runs: NewRunStore(p),
	}, nil
}

func (t *trackingDBPostgres) Runs() kdb.RunInterface {
	return t.runs
}

func (t *trackingDBPostgres) Close() {
	t.pool.Close()
}

func ensureSchema(ctx context.Context, q kpool.Queryer) error {
	for _, ddl := range []string{
		`
		create table if not exists "run" (
			"run_id" varchar(128) primary key,
			"experiment" varchar(256) not null,
			"parent_run_id" varchar(128) not null default '',
			"status" varchar(16) not null,
			"exit_code" smallint,
			"exit_message" text,
			"updated_at" timestamp with time zone not null default now()
		);`,
		`
		create table if not exists "run_tag" (
			"run_id" varchar(128) not null references "run" ("run_id") on delete cascade,
			"key" varchar(256) not null,
			"value" text not null,
			primary key ("run_id", "key")
		);`,
		`
		create table if not exists "checkpoint" (
			"run_id" varchar(128) not null references "run" ("run_id") on delete cascade,
			"name" varchar(256) not null,
			"size" bigint not null,
			"updated_at" timestamp with time zone not null default now(),
			primary key ("run_id", "name")
		);`,
	} {
		if _, err := q.Exec(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

// a struct for DB operations related to runs.
type runPG struct {
	pool kpool.Pool
}

var _ kdb.RunInterface = &runPG{}

func NewRunStore(pool kpool.Pool) *runPG {
	return &runPG{pool: pool}
}

func (m *runPG) Register(ctx context.Context, run domain.RunBody) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(
		ctx,
		`
		insert into "run" ("run_id", "experiment", "parent_run_id", "status")
		values ($1, $2, $3, $4)
		`,
		run.Id, run.Experiment, run.ParentId, string(domain.Registered),
	); err != nil {
		if kpgerr.IsUniqueViolation(err) {
			return kpgerr.NewConflict("run", run.Id, err)
		}
		return err
	}

	if err := upsertTags(ctx, tx, run.Id, run.Tags); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (m *runPG) Get(ctx context.Context, runId string) (domain.RunBody, error) {
	run := domain.RunBody{Id: runId}

	var exitCode *int16
	var exitMessage *string
	if err := m.pool.QueryRow(
		ctx,
		`
		select "experiment", "parent_run_id", "status", "exit_code", "exit_message", "updated_at"
		from "run" where "run_id" = $1
		`,
		runId,
	).Scan(
		&run.Experiment, &run.ParentId, (*string)(&run.Status),
		&exitCode, &exitMessage, &run.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RunBody{}, kpgerr.Missing{Table: "run", Identity: runId}
		}
		return domain.RunBody{}, err
	}

	if exitCode != nil {
		run.Exit = &domain.RunExit{Code: uint8(*exitCode)}
		if exitMessage != nil {
			run.Exit.Message = *exitMessage
		}
	}

	tags, err := m.GetTags(ctx, runId)
	if err != nil {
		return domain.RunBody{}, err
	}
	run.Tags = tags

	checkpoints, err := m.GetCheckpoints(ctx, runId)
	if err != nil {
		return domain.RunBody{}, err
	}
	run.Checkpoints = checkpoints

	return run, nil
}

func (m *runPG) SetStatus(
	ctx context.Context, runId string, status domain.RunStatus, exit *domain.RunExit,
) error {
	var exitCode *int16
	var exitMessage *string
	if exit != nil {
		exitCode = new(int16)
		*exitCode = int16(exit.Code)
		exitMessage = &exit.Message
	}

	tag, err := m.pool.Exec(
		ctx,
		`
		update "run"
		set "status" = $2, "exit_code" = $3, "exit_message" = $4, "updated_at" = now()
		where "run_id" = $1
		`,
		runId, string(status), exitCode, exitMessage,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return kpgerr.Missing{Table: "run", Identity: runId}
	}
	return nil
}

func (m *runPG) GetTags(ctx context.Context, runId string) (map[string]string, error) {
	rows, err := m.pool.Query(
		ctx, `select "key", "value" from "run_tag" where "run_id" = $1`, runId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		tags[k] = v
	}
	return tags, rows.Err()
}

func (m *runPG) UpsertTags(ctx context.Context, runId string, tags map[string]string) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var found bool
	if err := tx.QueryRow(
		ctx, `select exists (select 1 from "run" where "run_id" = $1)`, runId,
	).Scan(&found); err != nil {
		return err
	}
	if !found {
		return kpgerr.Missing{Table: "run", Identity: runId}
	}

	if err := upsertTags(ctx, tx, runId, tags); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func upsertTags(ctx context.Context, tx kpool.Tx, runId string, tags map[string]string) error {
	for k, v := range tags {
		if _, err := tx.Exec(
			ctx,
			`
			insert into "run_tag" ("run_id", "key", "value") values ($1, $2, $3)
			on conflict ("run_id", "key") do update set "value" = excluded."value"
			`,
			runId, k, v,
		); err != nil {
			return err
		}
	}
	return nil
}

func (m *runPG) AddCheckpoint(ctx context.Context, runId string, cp domain.CheckpointRecord) error {
	updatedAt := cp.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	if _, err := m.pool.Exec(
		ctx,
		`
		insert into "checkpoint" ("run_id", "name", "size", "updated_at")
		values ($1, $2, $3, $4)
		on conflict ("run_id", "name")
		do update set "size" = excluded."size", "updated_at" = excluded."updated_at"
		`,
		runId, cp.Name, cp.Size, updatedAt,
	); err != nil {
		return err
	}
	return nil
}

func (m *runPG) GetCheckpoints(ctx context.Context, runId string) ([]domain.CheckpointRecord, error) {
	rows, err := m.pool.Query(
		ctx,
		`
		select "name", "size", "updated_at" from "checkpoint"
		where "run_id" = $1 order by "updated_at", "name"
		`,
		runId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checkpoints := []domain.CheckpointRecord{}
	for rows.Next() {
		cp := domain.CheckpointRecord{}
		if err := rows.Scan(&cp.Name, &cp.Size, &cp.UpdatedAt); err != nil {
			return nil, err
		}
		checkpoints = append(checkpoints, cp)
	}
	return checkpoints, rows.Err()
}
