package scenarios

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aristath/capstack/internal/database"
	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/snapshots"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// payloadFormat marks how scenario payloads are encoded in the store.
const payloadFormat = "msgpack"

// StoredScenario is a scenario with its store metadata.
type StoredScenario struct {
	ID        string          `json:"id"`
	Scenario  domain.Scenario `json:"scenario"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ScenarioSummary is one row of the scenario listing.
type ScenarioSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RunRecord is a stored run without its snapshot body.
type RunRecord struct {
	ID         string         `json:"id"`
	ScenarioID string         `json:"scenarioId,omitempty"`
	Kind       snapshots.Kind `json:"kind"`
	NPV        float64        `json:"npv"`
	LeveredIRR *float64       `json:"leveredIrr"`
	Warnings   int            `json:"warnings"`
	ArchiveKey string         `json:"archiveKey,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Repository persists scenarios and run snapshots in SQLite.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new scenario repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "scenarios").Logger(),
	}
}

// Create stores a new scenario and returns it with its generated id.
func (r *Repository) Create(s domain.Scenario) (*StoredScenario, error) {
	payload, err := msgpack.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scenario: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	stored := &StoredScenario{ID: uuid.NewString(), Scenario: s, CreatedAt: now, UpdatedAt: now}

	_, err = r.db.Exec(
		"INSERT INTO scenarios (id, name, format, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		stored.ID, s.Name, payloadFormat, payload, now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert scenario: %w", err)
	}

	r.log.Debug().Str("scenario_id", stored.ID).Str("name", s.Name).Msg("Scenario stored")
	return stored, nil
}

// Update replaces the scenario body.
func (r *Repository) Update(id string, s domain.Scenario) error {
	payload, err := msgpack.Marshal(&s)
	if err != nil {
		return fmt.Errorf("failed to encode scenario: %w", err)
	}

	result, err := r.db.Exec(
		"UPDATE scenarios SET name = ?, payload = ?, updated_at = ? WHERE id = ?",
		s.Name, payload, time.Now().UTC().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update scenario: %w", err)
	}
	return requireRow(result, "scenario", id)
}

// Get returns the scenario with the given id, or a not_found error.
func (r *Repository) Get(id string) (*StoredScenario, error) {
	var (
		format           string
		payload          []byte
		created, updated int64
	)
	err := r.db.QueryRow(
		"SELECT format, payload, created_at, updated_at FROM scenarios WHERE id = ?", id,
	).Scan(&format, &payload, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, domain.NewError(domain.CodeNotFound, "scenario %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	if format != payloadFormat {
		return nil, fmt.Errorf("scenario %s: unsupported payload format %q", id, format)
	}

	stored := &StoredScenario{
		ID:        id,
		CreatedAt: time.Unix(created, 0).UTC(),
		UpdatedAt: time.Unix(updated, 0).UTC(),
	}
	if err := msgpack.Unmarshal(payload, &stored.Scenario); err != nil {
		return nil, fmt.Errorf("failed to decode scenario %s: %w", id, err)
	}
	return stored, nil
}

// List returns all scenarios, most recently updated first.
func (r *Repository) List() ([]ScenarioSummary, error) {
	rows, err := r.db.Query("SELECT id, name, updated_at FROM scenarios ORDER BY updated_at DESC, name")
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	summaries := []ScenarioSummary{}
	for rows.Next() {
		var s ScenarioSummary
		var updated int64
		if err := rows.Scan(&s.ID, &s.Name, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan scenario: %w", err)
		}
		s.UpdatedAt = time.Unix(updated, 0).UTC()
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Delete removes a scenario and its runs.
func (r *Repository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM scenarios WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	return requireRow(result, "scenario", id)
}

// SaveRun stores a run snapshot. scenarioID may be empty for ad-hoc runs.
func (r *Repository) SaveRun(scenarioID string, snap *snapshots.Snapshot) (*RunRecord, error) {
	data, err := snapshots.Encode(snap)
	if err != nil {
		return nil, err
	}

	kpis := snap.KPIs()
	rec := &RunRecord{
		ID:         snap.ID,
		ScenarioID: scenarioID,
		Kind:       snap.Kind,
		NPV:        kpis.NPV,
		LeveredIRR: kpis.LeveredIRR,
		Warnings:   snap.WarningCount(),
		CreatedAt:  snap.CreatedAt.Truncate(time.Second),
	}

	err = database.WithTransaction(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO runs (id, scenario_id, kind, snapshot, npv, levered_irr, warnings, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, nullString(scenarioID), string(rec.Kind), data, rec.NPV, nullFloat(rec.LeveredIRR), rec.Warnings, rec.CreatedAt.Unix(),
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	r.log.Debug().Str("run_id", rec.ID).Str("kind", string(rec.Kind)).Msg("Run stored")
	return rec, nil
}

// GetRun returns the stored run and its decoded snapshot.
func (r *Repository) GetRun(id string) (*RunRecord, *snapshots.Snapshot, error) {
	row := r.db.QueryRow(
		`SELECT id, scenario_id, kind, npv, levered_irr, warnings, archive_key, created_at, snapshot
		 FROM runs WHERE id = ?`, id)

	var data []byte
	rec, err := scanRun(row, &data)
	if err == sql.ErrNoRows {
		return nil, nil, domain.NewError(domain.CodeNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run: %w", err)
	}

	snap, err := snapshots.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", id, err)
	}
	return rec, snap, nil
}

// GetRunSnapshot returns the raw encoded snapshot of a run.
func (r *Repository) GetRunSnapshot(id string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRow("SELECT snapshot FROM runs WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, domain.NewError(domain.CodeNotFound, "run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run snapshot: %w", err)
	}
	return data, nil
}

// ListRuns returns the runs of a scenario, newest first.
func (r *Repository) ListRuns(scenarioID string) ([]RunRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, scenario_id, kind, npv, levered_irr, warnings, archive_key, created_at, NULL
		 FROM runs WHERE scenario_id = ? ORDER BY created_at DESC, id`, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	records := []RunRecord{}
	for rows.Next() {
		var discard []byte
		rec, err := scanRun(rows, &discard)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// SetArchiveKey records where a run snapshot was archived.
func (r *Repository) SetArchiveKey(runID, key string) error {
	result, err := r.db.Exec("UPDATE runs SET archive_key = ? WHERE id = ?", key, runID)
	if err != nil {
		return fmt.Errorf("failed to set archive key: %w", err)
	}
	return requireRow(result, "run", runID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner, snapshot *[]byte) (*RunRecord, error) {
	var (
		rec        RunRecord
		kind       string
		scenarioID sql.NullString
		irr        sql.NullFloat64
		archiveKey sql.NullString
		created    int64
	)
	if err := row.Scan(&rec.ID, &scenarioID, &kind, &rec.NPV, &irr, &rec.Warnings, &archiveKey, &created, snapshot); err != nil {
		return nil, err
	}
	rec.Kind = snapshots.Kind(kind)
	rec.ScenarioID = scenarioID.String
	rec.ArchiveKey = archiveKey.String
	rec.CreatedAt = time.Unix(created, 0).UTC()
	if irr.Valid {
		v := irr.Float64
		rec.LeveredIRR = &v
	}
	return &rec, nil
}

func requireRow(result sql.Result, what, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.NewError(domain.CodeNotFound, "%s %s not found", what, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
