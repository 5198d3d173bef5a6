package database

import (
	"bytes"
	"log"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eddic/gr-gs/internal/distribution"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(Config{Path: filepath.Join(t.TempDir(), "runs.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRun(name string) *Run {
	return &Run{
		Name:             name,
		FieldSize:        4,
		CodewordLength:   8,
		AugmentingLength: 2,
		Continuous:       true,
		Method:           "msw",
		Multiplier:       Uint64s{1, 2, 3},
	}
}

func TestNewDB_LogsOpen(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	path := filepath.Join(t.TempDir(), "runs.db")
	db, err := NewDB(Config{Path: path}, logger)
	require.NoError(t, err)
	defer db.Close()

	assert.Contains(t, buf.String(), path)
	assert.NoError(t, db.Health())

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.OpenConnections, 1)
}

func TestRunRepository_CreateGetSave(t *testing.T) {
	repo := openTestDB(t).Runs()

	run := testRun("file.bin")
	require.NoError(t, repo.Create(run))
	require.NotZero(t, run.ID)

	run.Words = 42
	run.Bytes = 63
	run.SelectionCounts = Uint64s{10, 0, 30, 2}
	run.FinalRDSReal = -1.5
	require.NoError(t, repo.Save(run))

	got, err := repo.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, "file.bin", got.Name)
	assert.Equal(t, uint64(42), got.Words)
	assert.Equal(t, Uint64s{1, 2, 3}, got.Multiplier)
	assert.Equal(t, Uint64s{10, 0, 30, 2}, got.SelectionCounts)
	assert.Equal(t, -1.5, got.FinalRDSReal)
	assert.True(t, got.Continuous)
}

func TestRunRepository_Validation(t *testing.T) {
	repo := openTestDB(t).Runs()

	assert.Error(t, repo.Create(nil))

	bad := testRun("bad")
	bad.AugmentingLength = 8
	assert.Error(t, repo.Create(bad))

	assert.Error(t, repo.Save(testRun("unsaved")))
}

func TestRunRepository_Snapshots(t *testing.T) {
	repo := openTestDB(t).Runs()

	run := testRun("snap")
	require.NoError(t, repo.Create(run))

	d, err := distribution.NewInfiniteDistribution(4, 1, -1.5, 2)
	require.NoError(t, err)
	d.AccumulateAll([]float64{-1.5, -0.5, -0.5, 0.5})
	first := NewSnapshot(4, d)
	d.AccumulateAll([]float64{1.5, 1.5})
	second := NewSnapshot(6, d)

	require.NoError(t, repo.AddSnapshots(run.ID, []DistributionSnapshot{second, first}))

	snaps, err := repo.Snapshots(run.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, uint64(4), snaps[0].Words)
	assert.Equal(t, Float64s{0.25, 0.5, 0.25, 0}, snaps[0].Values)
	assert.Equal(t, uint64(6), snaps[1].Words)
	assert.Equal(t, uint64(6), snaps[1].Samples)
	assert.Equal(t, -1.5, snaps[1].LeftBinCenter)

	require.NoError(t, repo.Delete(run.ID))
	snaps, err = repo.Snapshots(run.ID)
	require.NoError(t, err)
	assert.Empty(t, snaps)

	_, err = repo.Get(run.ID)
	assert.Error(t, err)
}

func TestRunRepository_ListAndStatistics(t *testing.T) {
	repo := openTestDB(t).Runs()

	for i, method := range []string{"msw", "msw", "wrds"} {
		run := testRun("run")
		run.Method = method
		run.Words = uint64(10 * (i + 1))
		run.Bytes = uint64(i + 1)
		require.NoError(t, repo.Create(run))
	}

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	runs, err := repo.List(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, uint64(30), runs[0].Words)

	named, err := repo.FindByName("run")
	require.NoError(t, err)
	assert.Len(t, named, 3)

	stats, err := repo.GetStatistics()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats["total_runs"])
	assert.Equal(t, uint64(60), stats["total_words"])
	assert.Equal(t, uint64(6), stats["total_bytes"])
}

func TestColumnTypes(t *testing.T) {
	v, err := Uint64s{1, 2}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[1,2]", v)

	var u Uint64s
	require.NoError(t, u.Scan([]byte("[7,8,9]")))
	assert.Equal(t, Uint64s{7, 8, 9}, u)
	require.NoError(t, u.Scan(nil))
	assert.Nil(t, u)
	assert.Error(t, u.Scan(12))

	var f Float64s
	require.NoError(t, f.Scan("[0.5,-1]"))
	assert.Equal(t, Float64s{0.5, -1}, f)
	require.NoError(t, f.Scan("[]"))
	assert.Equal(t, Float64s{}, f)
}
