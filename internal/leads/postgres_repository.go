package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/contractor-leads/pkg/logging"
)

// ChangeChannel is the NOTIFY channel fed by the leads table trigger.
const ChangeChannel = "lead_changes"

const leadColumns = `id, full_name, phone, email, service_needed, project_description,
		urgency_level, budget, property_address, timeline, lead_value, source,
		status, notes, created_at, updated_at`

// leadsDB is the subset of pgxpool used for queries.
type leadsDB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// notifyConn is a dedicated connection that has issued LISTEN.
type notifyConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Release()
	Discard(ctx context.Context) error
}

const unlistenTimeout = 5 * time.Second

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db     leadsDB
	listen func(ctx context.Context) (notifyConn, error)
	logger *logging.Logger
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool, logger *logging.Logger) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	repo := newPostgresRepositoryWithDB(pool, logger)
	repo.listen = func(ctx context.Context) (notifyConn, error) {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		return &poolNotifyConn{conn: conn}, nil
	}
	return repo
}

func newPostgresRepositoryWithDB(db leadsDB, logger *logging.Logger) *PostgresRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

// Create inserts a new row. The database assigns the timestamps.
func (r *PostgresRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	out := *lead
	out.ID = uuid.New().String()
	if out.Status == "" {
		out.Status = StatusNew
	}

	query := `
		INSERT INTO leads (id, full_name, phone, email, service_needed, project_description,
			urgency_level, budget, property_address, timeline, lead_value, source, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`
	if err := r.db.QueryRow(ctx, query,
		out.ID,
		out.FullName,
		out.Phone,
		out.Email,
		out.ServiceNeeded,
		out.ProjectDescription,
		string(out.UrgencyLevel),
		out.Budget,
		out.PropertyAddress,
		out.Timeline,
		out.LeadValue,
		out.Source,
		string(out.Status),
		out.Notes,
	).Scan(&out.CreatedAt, &out.UpdatedAt); err != nil {
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}
	return &out, nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: get failed: %w", err)
	}
	return lead, nil
}

// List returns all leads ordered by creation time descending.
func (r *PostgresRepository) List(ctx context.Context) ([]*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

// Update writes status and notes for exactly one row. Last writer wins.
func (r *PostgresRepository) Update(ctx context.Context, id string, upd Update) (*Lead, error) {
	if !upd.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	query := `
		UPDATE leads SET status = $2, notes = $3, updated_at = now()
		WHERE id = $1
		RETURNING ` + leadColumns
	lead, err := scanLead(r.db.QueryRow(ctx, query, id, string(upd.Status), upd.Notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: update failed: %w", err)
	}
	return lead, nil
}

// ListCatalog reads the service catalog. Inactive entries are included so
// callers can decide what to show.
func (r *PostgresRepository) ListCatalog(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT name, active FROM service_catalog ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("leads: catalog query failed: %w", err)
	}
	defer rows.Close()

	var out []CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.Name, &e.Active); err != nil {
			return nil, fmt.Errorf("leads: catalog scan failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type changePayload struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Subscribe holds a dedicated connection in LISTEN on ChangeChannel. Each
// notification is resolved to the current row. The subscription ends when
// ctx is done, the returned func is called, or the connection fails; the
// channel is closed in every case and there is no reconnect.
func (r *PostgresRepository) Subscribe(ctx context.Context) (<-chan Change, func(), error) {
	if r.listen == nil {
		return nil, nil, ErrSubscriptionsUnsupported
	}
	conn, err := r.listen(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("leads: acquire listen conn: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+ChangeChannel); err != nil {
		conn.Release()
		return nil, nil, fmt.Errorf("leads: listen failed: %w", err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan Change, subscriberBuffer)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer close(out)
		defer r.releaseListener(conn)
		for {
			n, err := conn.WaitForNotification(subCtx)
			if err != nil {
				if subCtx.Err() == nil {
					r.logger.Warn("lead subscription ended", "error", err)
				}
				return
			}
			change, ok := r.resolveChange(subCtx, n.Payload)
			if !ok {
				continue
			}
			select {
			case out <- change:
			case <-subCtx.Done():
				return
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return out, stop, nil
}

// releaseListener clears LISTEN state before the conn goes back to the pool.
// A conn that cannot run UNLISTEN is closed instead.
func (r *PostgresRepository) releaseListener(conn notifyConn) {
	ctx, cancel := context.WithTimeout(context.Background(), unlistenTimeout)
	defer cancel()
	if _, err := conn.Exec(ctx, "UNLISTEN *"); err != nil {
		r.logger.Debug("unlisten failed, closing listen conn", "error", err)
		if err := conn.Discard(ctx); err != nil {
			r.logger.Debug("close listen conn", "error", err)
		}
		return
	}
	conn.Release()
}

func (r *PostgresRepository) resolveChange(ctx context.Context, payload string) (Change, bool) {
	var p changePayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		r.logger.Warn("invalid lead change payload", "payload", payload, "error", err)
		return Change{}, false
	}
	typ := ChangeType(p.Type)
	if typ != ChangeInsert && typ != ChangeUpdate {
		return Change{}, false
	}
	lead, err := r.GetByID(ctx, p.ID)
	if err != nil {
		r.logger.Warn("lead change lookup failed", "lead_id", p.ID, "error", err)
		return Change{}, false
	}
	return Change{Type: typ, Lead: lead}, true
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead    Lead
		urgency string
		status  string
	)
	if err := row.Scan(
		&lead.ID,
		&lead.FullName,
		&lead.Phone,
		&lead.Email,
		&lead.ServiceNeeded,
		&lead.ProjectDescription,
		&urgency,
		&lead.Budget,
		&lead.PropertyAddress,
		&lead.Timeline,
		&lead.LeadValue,
		&lead.Source,
		&status,
		&lead.Notes,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	lead.UrgencyLevel = Urgency(urgency)
	lead.Status = Status(status)
	return &lead, nil
}

type poolNotifyConn struct {
	conn *pgxpool.Conn
}

func (c *poolNotifyConn) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, arguments...)
}

func (c *poolNotifyConn) WaitForNotification(ctx context.Context) (*pgconn.Notification, error) {
	return c.conn.Conn().WaitForNotification(ctx)
}

func (c *poolNotifyConn) Release() {
	c.conn.Release()
}

// Discard takes the conn out of the pool and closes it.
func (c *poolNotifyConn) Discard(ctx context.Context) error {
	return c.conn.Hijack().Close(ctx)
}
