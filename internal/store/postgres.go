package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"alert-relay-go/internal/models"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// RunMigrations creates tables if they don't exist and applies schema updates
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}

	// Apply migrations for existing tables
	migrations := []string{
		`ALTER TABLE alerts ADD COLUMN IF NOT EXISTS route_reason TEXT;`,
		`ALTER TABLE alerts ADD COLUMN IF NOT EXISTS routed_at_ms BIGINT;`,
		`ALTER TABLE silences ADD COLUMN IF NOT EXISTS created_by TEXT NOT NULL DEFAULT '';`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Alert methods

const alertColumns = `id, created_at_ms, received_at, payload, silenced, silence_id,
	acknowledged, acknowledged_by, acknowledged_at_ms, message_id, channel_id,
	route_action, route_destination, route_reason, routed_at_ms`

// alertFieldColumns translates mutable alert field names to columns.
// Every field UpdateAlert may touch must appear here.
var alertFieldColumns = map[string]string{
	"silenced":           "silenced",
	"silence_id":         "silence_id",
	"acknowledged":       "acknowledged",
	"acknowledged_by":    "acknowledged_by",
	"acknowledged_at_ms": "acknowledged_at_ms",
	"message_id":         "message_id",
	"channel_id":         "channel_id",
	"route_action":       "route_action",
	"route_destination":  "route_destination",
	"route_reason":       "route_reason",
	"routed_at_ms":       "routed_at_ms",
}

func (s *PostgresStore) SaveAlert(ctx context.Context, a models.Alert) error {
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alerts (`+alertColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		a.ID, a.CreatedAtMs, a.ReceivedAt, payload, a.Silenced, nullString(a.SilenceID),
		a.Acknowledged, nullString(a.AcknowledgedBy), nullInt64(a.AcknowledgedAtMs),
		nullInt64(int64(a.MessageID)), nullInt64(a.ChannelID),
		nullString(a.RouteAction), nullInt64(a.RouteDestination),
		nullString(a.RouteReason), nullInt64(a.RoutedAtMs),
	)
	return err
}

func (s *PostgresStore) UpdateAlert(ctx context.Context, id string, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, fmt.Errorf("no fields to update")
	}

	// Deterministic column order for stable statements
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var sets []string
	var args []any
	for i, name := range names {
		column, ok := alertFieldColumns[name]
		if !ok {
			return false, fmt.Errorf("unknown alert field %q", name)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, i+1))
		args = append(args, fields[name])
	}
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE alerts SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)),
		args...,
	)
	if err != nil {
		return false, err
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (s *PostgresStore) AcknowledgeAlert(ctx context.Context, id, actor string, atMs int64) (bool, error) {
	// The acknowledged guard makes the transition single-shot under
	// concurrent acknowledgments.
	result, err := s.db.ExecContext(ctx,
		`UPDATE alerts
		 SET acknowledged = TRUE, acknowledged_by = $1, acknowledged_at_ms = $2
		 WHERE id = $3 AND acknowledged = FALSE`,
		actor, atMs, id,
	)
	if err != nil {
		return false, err
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (s *PostgresStore) GetAlert(ctx context.Context, id string) (models.Alert, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)

	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return models.Alert{}, ErrNotFound
	}
	return a, err
}

func (s *PostgresStore) ListRecentAlerts(ctx context.Context, limit int, includeAcked bool) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts`
	if !includeAcked {
		query += ` WHERE acknowledged = FALSE`
	}
	query += ` ORDER BY created_at_ms DESC LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			log.Printf("failed to scan alert row: %v", err)
			continue
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

func (s *PostgresStore) DeleteAlertsBefore(ctx context.Context, cutoffMs int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM alerts WHERE created_at_ms < $1`, cutoffMs)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (models.Alert, error) {
	var a models.Alert
	var payload []byte
	var silenceID, ackedBy, routeAction, routeReason sql.NullString
	var ackedAt, channelID, routeDest, routedAt sql.NullInt64
	var messageID sql.NullInt64

	err := row.Scan(&a.ID, &a.CreatedAtMs, &a.ReceivedAt, &payload, &a.Silenced, &silenceID,
		&a.Acknowledged, &ackedBy, &ackedAt, &messageID, &channelID,
		&routeAction, &routeDest, &routeReason, &routedAt)
	if err != nil {
		return models.Alert{}, err
	}

	if err := json.Unmarshal(payload, &a.Payload); err != nil {
		return models.Alert{}, fmt.Errorf("failed to decode payload: %w", err)
	}

	if silenceID.Valid {
		a.SilenceID = silenceID.String
	}
	if ackedBy.Valid {
		a.AcknowledgedBy = ackedBy.String
	}
	if ackedAt.Valid {
		a.AcknowledgedAtMs = ackedAt.Int64
	}
	if messageID.Valid {
		a.MessageID = int(messageID.Int64)
	}
	if channelID.Valid {
		a.ChannelID = channelID.Int64
	}
	if routeAction.Valid {
		a.RouteAction = routeAction.String
	}
	if routeDest.Valid {
		a.RouteDestination = routeDest.Int64
	}
	if routeReason.Valid {
		a.RouteReason = routeReason.String
	}
	if routedAt.Valid {
		a.RoutedAtMs = routedAt.Int64
	}

	return a, nil
}

// Silence methods

func (s *PostgresStore) SaveSilence(ctx context.Context, sil models.Silence) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO silences (id, pattern, created_by, created_at_ms, expires_at_ms, active)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sil.ID, sil.Pattern, sil.CreatedBy, sil.CreatedAtMs, sil.ExpiresAtMs, sil.Active,
	)
	return err
}

func (s *PostgresStore) ListActiveSilences(ctx context.Context, nowMs int64) ([]models.Silence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pattern, created_by, created_at_ms, expires_at_ms, active
		 FROM silences
		 WHERE active = TRUE AND expires_at_ms > $1
		 ORDER BY created_at_ms DESC`,
		nowMs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var silences []models.Silence
	for rows.Next() {
		var sil models.Silence
		if err := rows.Scan(&sil.ID, &sil.Pattern, &sil.CreatedBy, &sil.CreatedAtMs, &sil.ExpiresAtMs, &sil.Active); err != nil {
			log.Printf("failed to scan silence row: %v", err)
			continue
		}
		silences = append(silences, sil)
	}

	return silences, rows.Err()
}

func (s *PostgresStore) DeactivateSilence(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE silences SET active = FALSE WHERE id = $1 AND active = TRUE`, id)
	if err != nil {
		return false, err
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (s *PostgresStore) DeactivateExpiredSilences(ctx context.Context, nowMs int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE silences SET active = FALSE WHERE active = TRUE AND expires_at_ms <= $1`, nowMs)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Routing decision methods

func (s *PostgresStore) SaveDecision(ctx context.Context, d models.RoutingDecision) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO routing_decisions (alert_id, action, destination, reason, decided_at_ms)
		 VALUES ($1, $2, $3, $4, $5)`,
		d.AlertID, d.Action, nullInt64(d.Destination), d.Reason, d.DecidedAtMs,
	)
	return err
}

func (s *PostgresStore) ListRecentDecisions(ctx context.Context, limit int) ([]models.RoutingDecision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, alert_id, action, destination, reason, decided_at_ms
		 FROM routing_decisions
		 ORDER BY decided_at_ms DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decisions []models.RoutingDecision
	for rows.Next() {
		var d models.RoutingDecision
		var destination sql.NullInt64
		if err := rows.Scan(&d.ID, &d.AlertID, &d.Action, &destination, &d.Reason, &d.DecidedAtMs); err != nil {
			log.Printf("failed to scan routing decision row: %v", err)
			continue
		}
		if destination.Valid {
			d.Destination = destination.Int64
		}
		decisions = append(decisions, d)
	}

	return decisions, rows.Err()
}

func (s *PostgresStore) DeleteDecisionsBefore(ctx context.Context, cutoffMs int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM routing_decisions WHERE decided_at_ms < $1`, cutoffMs)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt64(n int64) sql.NullInt64 {
	return sql.NullInt64{Int64: n, Valid: n != 0}
}
