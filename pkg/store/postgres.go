package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guidepost/launchpad/pkg/errors"
	"github.com/guidepost/launchpad/pkg/structs"
)

// Postgres is a record store implementation backed by postgres.
type Postgres struct {
	opts *Options
	pool *pgxpool.Pool
}

// NewPostgres returns a new Postgres store connection.
func NewPostgres(opts *Options) (*Postgres, error) {
	opts.setDefaults()
	opts.URL = strings.Replace(opts.URL, "$"+opts.UsernameEnvVar, os.Getenv(opts.UsernameEnvVar), 1)
	opts.URL = strings.Replace(opts.URL, "$"+opts.PasswordEnvVar, os.Getenv(opts.PasswordEnvVar), 1)
	pool, err := pgxpool.New(context.Background(), opts.URL)
	return &Postgres{pool: pool, opts: opts}, err
}

// Close shuts down the database connection.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

const (
	jobCols = `id, job_key, secret, workflow_id, status, tasks_todo,
		current_task_id, current_task_order, login, login_code,
		failed_login_trials, last_failed_login, last_successful_login,
		customer, language, external_ref, metadata, input, output,
		notification_status, login_code_notification_status,
		valid_for_minutes, valid_until,
		created_at, updated_at, started_on, completed_on, rejected_on`

	taskCols = `id, task_key, job_id, application_id, status, input, config,
		output, rejection_reason,
		created_at, updated_at, started_on, completed_on, rejected_on`
)

func jobArgs(j *structs.Job) ([]interface{}, error) {
	todos, err := json.Marshal(j.TasksTodo)
	if err != nil {
		return nil, err
	}
	login, err := json.Marshal(j.Login)
	if err != nil {
		return nil, err
	}
	customer, err := json.Marshal(j.Customer)
	if err != nil {
		return nil, err
	}
	input, err := json.Marshal(j.Input)
	if err != nil {
		return nil, err
	}
	output, err := json.Marshal(j.Output)
	if err != nil {
		return nil, err
	}
	nstat, err := json.Marshal(j.NotificationStatus)
	if err != nil {
		return nil, err
	}
	lstat, err := json.Marshal(j.LoginCodeNotificationStatus)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		j.ID, j.JobKey, j.Secret, j.WorkflowID, string(j.Status), todos,
		j.CurrentTaskID, j.CurrentTaskOrder, login, j.LoginCode,
		j.FailedLoginTrials, j.LastFailedLogin, j.LastSuccessfulLogin,
		customer, j.Language, j.ExternalRef, j.Metadata, input, output,
		nstat, lstat,
		j.ValidForMinutes, j.ValidUntil,
		j.CreatedAt, j.UpdatedAt, j.StartedOn, j.CompletedOn, j.RejectedOn,
	}, nil
}

func scanJob(row pgx.Row) (*structs.Job, error) {
	j := &structs.Job{}
	var status string
	var todos, login, customer, input, output, nstat, lstat []byte

	err := row.Scan(
		&j.ID, &j.JobKey, &j.Secret, &j.WorkflowID, &status, &todos,
		&j.CurrentTaskID, &j.CurrentTaskOrder, &login, &j.LoginCode,
		&j.FailedLoginTrials, &j.LastFailedLogin, &j.LastSuccessfulLogin,
		&customer, &j.Language, &j.ExternalRef, &j.Metadata, &input, &output,
		&nstat, &lstat,
		&j.ValidForMinutes, &j.ValidUntil,
		&j.CreatedAt, &j.UpdatedAt, &j.StartedOn, &j.CompletedOn, &j.RejectedOn,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w job", errors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	j.Status = structs.Status(status)
	for blob, into := range map[*[]byte]interface{}{
		&todos:    &j.TasksTodo,
		&login:    &j.Login,
		&customer: &j.Customer,
		&input:    &j.Input,
		&output:   &j.Output,
		&nstat:    &j.NotificationStatus,
		&lstat:    &j.LoginCodeNotificationStatus,
	} {
		if len(*blob) == 0 {
			continue
		}
		if err := json.Unmarshal(*blob, into); err != nil {
			return nil, err
		}
	}
	return j, nil
}

func (p *Postgres) CreateJob(ctx context.Context, j *structs.Job) error {
	args, err := jobArgs(j)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO jobs (%s) VALUES (%s);`, jobCols, placeholders(len(args)))
	_, err = p.pool.Exec(ctx, q, args...)
	return err
}

func (p *Postgres) UpdateJob(ctx context.Context, j *structs.Job) error {
	args, err := jobArgs(j)
	if err != nil {
		return err
	}
	// id ($1) pins the row; every other column is rewritten
	q := fmt.Sprintf(`UPDATE jobs SET (%s) = (%s) WHERE id = $1;`, jobCols, placeholders(len(args)))
	tag, err := p.pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w job %s", errors.ErrNotFound, j.ID)
	}
	return nil
}

func (p *Postgres) Job(ctx context.Context, id string) (*structs.Job, error) {
	q := fmt.Sprintf(`SELECT %s FROM jobs WHERE id = $1;`, jobCols)
	return scanJob(p.pool.QueryRow(ctx, q, id))
}

func (p *Postgres) JobByKey(ctx context.Context, key string) (*structs.Job, error) {
	q := fmt.Sprintf(`SELECT %s FROM jobs WHERE job_key = $1;`, jobCols)
	return scanJob(p.pool.QueryRow(ctx, q, key))
}

func taskArgs(t *structs.Task) ([]interface{}, error) {
	input, err := json.Marshal(t.Input)
	if err != nil {
		return nil, err
	}
	config, err := json.Marshal(t.Config)
	if err != nil {
		return nil, err
	}
	output, err := json.Marshal(t.Output)
	if err != nil {
		return nil, err
	}
	return []interface{}{
		t.ID, t.TaskKey, t.JobID, t.ApplicationID, string(t.Status),
		input, config, output, t.RejectionReason,
		t.CreatedAt, t.UpdatedAt, t.StartedOn, t.CompletedOn, t.RejectedOn,
	}, nil
}

func scanTask(row pgx.Row) (*structs.Task, error) {
	t := &structs.Task{}
	var status string
	var input, config, output []byte

	err := row.Scan(
		&t.ID, &t.TaskKey, &t.JobID, &t.ApplicationID, &status,
		&input, &config, &output, &t.RejectionReason,
		&t.CreatedAt, &t.UpdatedAt, &t.StartedOn, &t.CompletedOn, &t.RejectedOn,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w task", errors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	t.Status = structs.Status(status)
	for blob, into := range map[*[]byte]interface{}{
		&input:  &t.Input,
		&config: &t.Config,
		&output: &t.Output,
	} {
		if len(*blob) == 0 {
			continue
		}
		if err := json.Unmarshal(*blob, into); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (p *Postgres) CreateTask(ctx context.Context, t *structs.Task) error {
	args, err := taskArgs(t)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`INSERT INTO tasks (%s) VALUES (%s);`, taskCols, placeholders(len(args)))
	_, err = p.pool.Exec(ctx, q, args...)
	return err
}

func (p *Postgres) UpdateTask(ctx context.Context, t *structs.Task) error {
	args, err := taskArgs(t)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE tasks SET (%s) = (%s) WHERE id = $1;`, taskCols, placeholders(len(args)))
	tag, err := p.pool.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w task %s", errors.ErrNotFound, t.ID)
	}
	return nil
}

func (p *Postgres) Task(ctx context.Context, id string) (*structs.Task, error) {
	q := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1;`, taskCols)
	return scanTask(p.pool.QueryRow(ctx, q, id))
}

func (p *Postgres) TaskByKey(ctx context.Context, key string) (*structs.Task, error) {
	q := fmt.Sprintf(`SELECT %s FROM tasks WHERE task_key = $1;`, taskCols)
	return scanTask(p.pool.QueryRow(ctx, q, key))
}

func (p *Postgres) Workflow(ctx context.Context, id string) (*structs.Workflow, error) {
	w := &structs.Workflow{}
	var todos, login, notify []byte

	err := p.pool.QueryRow(ctx,
		`SELECT id, name, active, tasks_todo, login, notify FROM workflows WHERE id = $1;`, id,
	).Scan(&w.ID, &w.Name, &w.Active, &todos, &login, &notify)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w workflow %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	for blob, into := range map[*[]byte]interface{}{
		&todos:  &w.TasksTodo,
		&login:  &w.Login,
		&notify: &w.Notify,
	} {
		if len(*blob) == 0 {
			continue
		}
		if err := json.Unmarshal(*blob, into); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (p *Postgres) Application(ctx context.Context, id string) (*structs.Application, error) {
	a := &structs.Application{}
	var config []byte

	err := p.pool.QueryRow(ctx,
		`SELECT id, name, active, access_url, license_id, config FROM applications WHERE id = $1;`, id,
	).Scan(&a.ID, &a.Name, &a.Active, &a.AccessURL, &a.LicenseID, &config)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w application %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	if len(config) > 0 {
		if err := json.Unmarshal(config, &a.Config); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (p *Postgres) License(ctx context.Context, id string) (*structs.License, error) {
	l := &structs.License{}
	var model string

	err := p.pool.QueryRow(ctx,
		`SELECT id, expires_at, model, limit_units, used_units FROM licenses WHERE id = $1;`, id,
	).Scan(&l.ID, &l.ExpiresAt, &model, &l.Limit, &l.Used)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w license %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	l.Model = structs.ToPricingModel(model)
	return l, nil
}

// ConsumeLicenseUnit does the quota check & increment in one statement;
// postgres row locking serializes concurrent consumers so only as many
// succeed as there are units left.
func (p *Postgres) ConsumeLicenseUnit(ctx context.Context, id string) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		`UPDATE licenses SET used_units = used_units + 1
		 WHERE id = $1 AND used_units < limit_units;`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (p *Postgres) CreateAuditLog(ctx context.Context, a *structs.AuditLog) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, job_id, action, description, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6);`,
		a.ID, a.JobID, a.Action, a.Description, a.Metadata, a.CreatedAt)
	return err
}

func placeholders(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(out, ", ")
}
