package scenarios

import (
	"path/filepath"
	"testing"

	"github.com/aristath/capstack/internal/database"
	"github.com/aristath/capstack/internal/domain"
	"github.com/aristath/capstack/internal/modules/pipeline"
	"github.com/aristath/capstack/internal/modules/snapshots"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "capstack.db"),
		Profile: database.ProfileCache,
		Name:    "test",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db.Conn(), zerolog.Nop())
}

func loadHotel(t *testing.T) domain.Scenario {
	t.Helper()
	s, err := NewLoader(zerolog.Nop()).LoadFile(filepath.Join("testdata", "hotel.yaml"))
	require.NoError(t, err)
	return s
}

func TestRepository_ScenarioLifecycle(t *testing.T) {
	repo := setupRepo(t)
	hotel := loadHotel(t)

	stored, err := repo.Create(hotel)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)

	got, err := repo.Get(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, hotel, got.Scenario)
	assert.Equal(t, stored.CreatedAt, got.CreatedAt)

	hotel.Name = "harbour-hotel-v2"
	hotel.Project.DiscountRate = 0.1
	require.NoError(t, repo.Update(stored.ID, hotel))

	got, err = repo.Get(stored.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.1, got.Scenario.Project.DiscountRate)

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "harbour-hotel-v2", list[0].Name)

	require.NoError(t, repo.Delete(stored.ID))
	_, err = repo.Get(stored.ID)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
}

func TestRepository_NotFound(t *testing.T) {
	repo := setupRepo(t)

	_, err := repo.Get("missing")
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	assert.True(t, domain.IsCode(repo.Update("missing", domain.Scenario{}), domain.CodeNotFound))
	assert.True(t, domain.IsCode(repo.Delete("missing"), domain.CodeNotFound))
	_, _, err = repo.GetRun("missing")
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	_, err = repo.GetRunSnapshot("missing")
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	assert.True(t, domain.IsCode(repo.SetArchiveKey("missing", "k"), domain.CodeNotFound))
}

func TestRepository_Runs(t *testing.T) {
	repo := setupRepo(t)
	hotel := loadHotel(t)

	stored, err := repo.Create(hotel)
	require.NoError(t, err)

	result, err := pipeline.Run(hotel)
	require.NoError(t, err)

	rec, err := repo.SaveRun(stored.ID, snapshots.NewPipeline(hotel, result))
	require.NoError(t, err)
	assert.Equal(t, snapshots.KindPipeline, rec.Kind)
	assert.InDelta(t, result.KPIs.NPV, rec.NPV, 1e-9)

	adhoc, err := repo.SaveRun("", snapshots.NewPipeline(hotel, result))
	require.NoError(t, err)

	gotRec, snap, err := repo.GetRun(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, gotRec.ScenarioID)
	assert.Equal(t, result.KPIs, snap.Pipeline.KPIs)
	if result.KPIs.LeveredIRR != nil {
		require.NotNil(t, gotRec.LeveredIRR)
		assert.InDelta(t, *result.KPIs.LeveredIRR, *gotRec.LeveredIRR, 1e-12)
	}

	require.NoError(t, repo.SetArchiveKey(rec.ID, "runs/"+rec.ID+".msgpack"))

	runs, err := repo.ListRuns(stored.ID)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "runs/"+rec.ID+".msgpack", runs[0].ArchiveKey)

	raw, err := repo.GetRunSnapshot(adhoc.ID)
	require.NoError(t, err)
	decoded, err := snapshots.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, adhoc.ID, decoded.ID)

	// Deleting the scenario removes its runs but keeps ad-hoc ones.
	require.NoError(t, repo.Delete(stored.ID))
	_, _, err = repo.GetRun(rec.ID)
	assert.True(t, domain.IsCode(err, domain.CodeNotFound))
	_, _, err = repo.GetRun(adhoc.ID)
	assert.NoError(t, err)
}
