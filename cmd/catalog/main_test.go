package main

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/reliktarte/catalog-service/cache"
	"github.com/reliktarte/catalog-service/config"
	"github.com/reliktarte/catalog-service/importer"
	"github.com/reliktarte/catalog-service/metrics"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.Subset(t, names, []string{"serve", "import", "reset", "optimize", "migrate"})
}

func TestResetCmd_RequiresConfirmation(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"reset"})

	err := root.ExecuteContext(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestPlans(t *testing.T) {
	defaults, err := plans(config.CatalogConfig{})
	require.NoError(t, err)
	assert.Len(t, defaults, 2)

	custom, err := plans(config.CatalogConfig{Categories: "arch:Арки:flat"})
	require.NoError(t, err)
	require.Len(t, custom, 1)
	assert.Equal(t, "arch", custom[0].Code)
}

func TestNewSynchronizer_BadSKUSource(t *testing.T) {
	_, err := newSynchronizer(config.CatalogConfig{SKUSource: "guess"}, nil, zap.NewNop())

	assert.Error(t, err)
}

func TestRecordImport(t *testing.T) {
	m := metrics.New()
	hook := recordImport(m)
	report := importer.NewReport(importer.ModeUpsert)
	report.Category("Двері").Added = 3

	hook(context.Background(), importer.ModeUpsert, report, nil)
	hook(context.Background(), importer.ModeReset, nil, errors.New("truncate failed"))

	count, err := testutil.GatherAndCount(m.Registry(), "catalog_import_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

type countingStore struct {
	incrs int
}

func (s *countingStore) Get(context.Context, string) ([]byte, error) { return nil, cache.ErrMiss }

func (s *countingStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (s *countingStore) Incr(context.Context, string) (int64, error) {
	s.incrs++
	return int64(s.incrs), nil
}

func TestInvalidateCatalog(t *testing.T) {
	store := &countingStore{}
	hook := invalidateCatalog(cache.New(store, "test", time.Minute, nil), zap.NewNop())

	hook(context.Background(), importer.ModeUpsert, nil, errors.New("partial"))

	assert.Equal(t, 1, store.incrs, "partial runs still commit, so the cache is bumped")

	assert.NotPanics(t, func() {
		invalidateCatalog(nil, zap.NewNop())(context.Background(), importer.ModeUpsert, nil, nil)
	})
}

func TestCloseDB_LogsFailures(t *testing.T) {
	t.Run("Close error", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
		require.NoError(t, err)
		mock.ExpectClose().WillReturnError(errors.New("busy"))
		core, logs := observer.New(zap.WarnLevel)

		closeDB(db, zap.New(core))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "close database", logs.All()[0].Message)
	})

	t.Run("No underlying pool", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)

		closeDB(&gorm.DB{Config: &gorm.Config{}}, zap.New(core))

		require.Equal(t, 1, logs.Len())
		assert.Equal(t, gorm.ErrInvalidDB.Error(), logs.All()[0].ContextMap()["error"])
	})
}
