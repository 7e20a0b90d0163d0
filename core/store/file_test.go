package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	boterr "github.com/m3rciful/utilbot/core/errors"
)

func openTemp(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := OpenFile(path)
	require.NoError(t, err)
	return s, path
}

func TestFileStoreDefaultWelcome(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()

	text, err := s.Welcome(ctx, -100123)
	require.NoError(t, err)
	assert.Equal(t, "Welcome {name}!", text)

	groups, err := s.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "reads must not create the file")
}

func TestFileStoreSetWelcomePersists(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.SetWelcome(ctx, -100123, "Hi {name}, welcome!"))
	text, err := s.Welcome(ctx, -100123)
	require.NoError(t, err)
	assert.Equal(t, "Hi {name}, welcome!", text)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"-100123": "Hi {name}, welcome!"`)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestFileStoreTrackGroupIdempotent(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()

	added, err := s.TrackGroup(ctx, -100111)
	require.NoError(t, err)
	assert.True(t, added)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	added, err = s.TrackGroup(ctx, -100111)
	require.NoError(t, err)
	assert.False(t, added)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	groups, err := s.Groups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-100111}, groups)
}

func TestFileStoreRoundTrip(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.SetWelcome(ctx, -100123, "Hi {name}!"))
	require.NoError(t, s.SetWelcome(ctx, -100456, "Привет, {name}"))
	for _, id := range []int64{-100111, -100222, -100111} {
		_, err := s.TrackGroup(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, s.Document(), reopened.Document())

	text, err := reopened.Welcome(ctx, -100456)
	require.NoError(t, err)
	assert.Equal(t, "Привет, {name}", text)
}

func TestFileStoreGroupsIsSnapshot(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	_, err := s.TrackGroup(ctx, 1)
	require.NoError(t, err)

	groups, err := s.Groups(ctx)
	require.NoError(t, err)
	groups[0] = 99

	again, err := s.Groups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, again)
}

func TestFileStoreCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "data.json")
	s, err := OpenFile(path)
	require.NoError(t, err)

	_, err = s.TrackGroup(context.Background(), -1)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestOpenFileCorrupt(t *testing.T) {
	for name, body := range map[string]string{
		"not json":     "{not json",
		"null":         "null",
		"empty object": "{}",
		"null fields":  `{"welcome":null,"groups":null}`,
		"unknown keys": `{"Welcome":{"1":"x"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			_, err := OpenFile(path)
			require.Error(t, err)
			assert.True(t, boterr.HasCode(err, boterr.CodeStoreLoadCorrupt))
			assert.Equal(t, path, boterr.FieldsOf(err)["path"])

			kept, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, body, string(kept))
		})
	}
}

func TestOpenFileReadFailure(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenFile(dir)
	require.Error(t, err)
	assert.True(t, boterr.HasCode(err, boterr.CodeStoreLoadReadFailure))
}

func TestFileStoreRollsBackOnSaveFailure(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.SetWelcome(ctx, -100123, "original"))

	// a directory in place of the file makes every write fail
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	err := s.SetWelcome(ctx, -100123, "changed")
	require.Error(t, err)
	assert.True(t, boterr.HasCode(err, boterr.CodeStoreSaveFailure))

	err = s.SetWelcome(ctx, -100999, "new chat")
	require.Error(t, err)

	added, err := s.TrackGroup(ctx, -100111)
	require.Error(t, err)
	assert.False(t, added)

	text, err := s.Welcome(ctx, -100123)
	require.NoError(t, err)
	assert.Equal(t, "original", text)

	text, err = s.Welcome(ctx, -100999)
	require.NoError(t, err)
	assert.Equal(t, DefaultWelcome, text)

	groups, err := s.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.Equal(t, []WelcomeEntry{{ChatID: -100123, Text: "original"}}, s.Document().Welcomes())
}

func TestImportIntoFileStore(t *testing.T) {
	src := NewDocument()
	src.SetWelcome(-100123, "Hi {name}")
	src.AddGroup(-100111)
	src.AddGroup(-100222)

	dst, _ := openTemp(t)
	ctx := context.Background()
	_, err := dst.TrackGroup(ctx, -100222)
	require.NoError(t, err)

	stats, err := Import(ctx, dst, src)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Welcome: 1, Groups: 1}, stats)

	groups, err := dst.Groups(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-100222, -100111}, groups)
}

func TestReadDocumentRequiresFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	_, err := ReadDocument(path)
	require.Error(t, err)
	assert.True(t, boterr.HasCode(err, boterr.CodeStoreLoadReadFailure))

	doc, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Empty(t, doc.Groups())
}
