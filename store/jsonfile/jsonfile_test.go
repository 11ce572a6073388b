package jsonfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crewdesk/store"
	"github.com/warp/crewdesk/store/jsonfile"
)

type record struct {
	ID   string `json:"id"`
	Note string `json:"note"`
}

func TestNew_FirstRunCreatesEmptyCollection(t *testing.T) {
	// GIVEN: A path in a directory that does not exist yet
	// WHEN: Opening the store and loading
	// THEN: The file is created and Load observes an empty collection

	path := filepath.Join(t.TempDir(), "data", "records.json")
	s, err := jsonfile.New(path)
	require.NoError(t, err)

	var records []record
	require.NoError(t, s.Load(context.Background(), &records))
	assert.Empty(t, records)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	s, err := jsonfile.New(path)
	require.NoError(t, err)
	ctx := context.Background()

	in := []record{{ID: "a", Note: "first"}, {ID: "b", Note: "second"}}
	require.NoError(t, s.Save(ctx, in))

	var out []record
	require.NoError(t, s.Load(ctx, &out))
	assert.Equal(t, in, out)
}

func TestSave_FullOverwrite(t *testing.T) {
	// GIVEN: A snapshot holding two records
	// WHEN: Saving a one-record collection
	// THEN: The old contents are fully replaced, not merged

	path := filepath.Join(t.TempDir(), "records.json")
	s, err := jsonfile.New(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []record{{ID: "a"}, {ID: "b"}}))
	require.NoError(t, s.Save(ctx, []record{{ID: "c"}}))

	var out []record
	require.NoError(t, s.Load(ctx, &out))
	require.Len(t, out, 1)
	assert.Equal(t, "c", out[0].ID)
}

func TestLoad_BlankFileTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0o644))

	s, err := jsonfile.New(path)
	require.NoError(t, err)

	var records []record
	require.NoError(t, s.Load(context.Background(), &records))
	assert.Empty(t, records)
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s, err := jsonfile.New(path)
	require.NoError(t, err)

	var records []record
	err = s.Load(context.Background(), &records)
	assert.ErrorIs(t, err, store.ErrCorruptSnapshot)
}
