package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/speedtype/internal/model"
)

func sampleResult() model.Result {
	return model.Result{
		WPM:      42,
		Accuracy: 97.5,
		DetailedErrors: []model.ErrorPosition{
			{Char: "x", Expected: "e", Position: 1},
		},
		Words: 42,
	}
}

func openSlots(t *testing.T) map[string]*Slot {
	t.Helper()
	dir := t.TempDir()
	sqliteSlot, err := Open(BackendSQLite, filepath.Join(dir, "speedtype.db"))
	require.NoError(t, err)
	fileSlot, err := Open(BackendFile, filepath.Join(dir, "data", "result.json"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqliteSlot.Close()
		_ = fileSlot.Close()
	})
	return map[string]*Slot{BackendSQLite: sqliteSlot, BackendFile: fileSlot}
}

func TestSlotRoundTripAndOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, slot := range openSlots(t) {
		t.Run(name, func(t *testing.T) {
			_, err := slot.Load(ctx)
			assert.ErrorIs(t, err, ErrNoData)

			require.NoError(t, slot.Save(ctx, sampleResult()))
			got, err := slot.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 42, got.WPM)
			assert.Equal(t, 97.5, got.Accuracy)
			assert.Equal(t, sampleResult().DetailedErrors, got.DetailedErrors)

			require.NoError(t, slot.Save(ctx, model.Result{WPM: 10, Accuracy: 100}))
			got, err = slot.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, 10, got.WPM)
			assert.Empty(t, got.DetailedErrors)
			assert.NotNil(t, got.DetailedErrors)

			require.NoError(t, slot.Clear(ctx))
			_, err = slot.Load(ctx)
			assert.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestEncodeUsesSlotFieldNames(t *testing.T) {
	data, err := Encode(sampleResult())
	require.NoError(t, err)
	assert.JSONEq(t, `{"wpm":42,"accuracy":97.5,"detailedErrors":[{"char":"x","expected":"e","position":1}]}`, string(data))

	data, err = Encode(model.Result{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"wpm":0,"accuracy":0,"detailedErrors":[]}`, string(data))
}

func TestDecodeRejectsMalformed(t *testing.T) {
	for _, raw := range []string{
		``,
		`null`,
		`{not json`,
		`[]`,
		`{"accuracy":90}`,
		`{"wpm":40}`,
		`{"wpm":-1,"accuracy":90}`,
		`{"wpm":40,"accuracy":140}`,
		`{"wpm":"fast","accuracy":90}`,
	} {
		_, err := Decode([]byte(raw))
		assert.ErrorIs(t, err, ErrNoData, raw)
	}

	res, err := Decode([]byte(`{"wpm":40,"accuracy":95}`))
	require.NoError(t, err)
	assert.Equal(t, 40, res.WPM)
	assert.NotNil(t, res.DetailedErrors)
}

func TestFileStoreCorruptFileIsNoData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	slot := NewSlot(NewFileStore(path))
	_, err := slot.Load(ctx)
	assert.ErrorIs(t, err, ErrNoData)

	require.NoError(t, slot.Save(ctx, sampleResult()))
	got, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, got.WPM)
}

func TestSQLiteStoreMalformedValueIsNoData(t *testing.T) {
	ctx := context.Background()
	kv, err := OpenSQLite(filepath.Join(t.TempDir(), "speedtype.db"))
	require.NoError(t, err)
	defer func() { _ = kv.Close() }()

	require.NoError(t, kv.Put(ctx, ResultKey, []byte("{broken")))
	_, err = NewSlot(kv).Load(ctx)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("redis", filepath.Join(t.TempDir(), "x"))
	assert.Error(t, err)
	assert.True(t, ValidBackend("SQLite"))
	assert.False(t, ValidBackend("redis"))
}

func TestAtomicWriteRemovesTempOnRenameFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "result.json")
	// A non-empty directory at the target path makes the rename fail.
	require.NoError(t, os.MkdirAll(filepath.Join(target, "child"), 0o755))

	err := atomicWrite(target, []byte("{}"))
	require.Error(t, err)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
