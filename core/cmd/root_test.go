package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/utilbot/core/config"
	boterr "github.com/m3rciful/utilbot/core/errors"
	"github.com/m3rciful/utilbot/core/store"
	coretelegram "github.com/m3rciful/utilbot/core/telegram"
)

func testOptions(run func(context.Context, coretelegram.RunOptions) error) Options {
	return Options{
		LoggerInit:     func(*coreconfig.Config) error { return nil },
		ShutdownLogger: func() error { return nil },
		RunTelegram:    run,
	}
}

func writeConfig(t *testing.T, dataFile string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf("telegram:\n  token: \"123:abc\"\n  admin_ids: [1]\nstorage:\n  backend: json\n  data_file: %q\n", dataFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func execute(t *testing.T, opts Options, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(opts)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootRegistersSubcommands(t *testing.T) {
	root := NewRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["run"])
	assert.True(t, names["migrate"])
	assert.True(t, names["version"])
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestRunPassesStoreAndConfig(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "data.json")
	cfgPath := writeConfig(t, dataFile)

	var got coretelegram.RunOptions
	_, err := execute(t, testOptions(func(_ context.Context, opts coretelegram.RunOptions) error {
		got = opts
		return nil
	}), "run", "--config", cfgPath)
	require.NoError(t, err)

	require.NotNil(t, got.Config)
	assert.Equal(t, []int64{1}, got.Config.Telegram.AdminIDs)
	assert.Equal(t, coreconfig.RunModeLongpoll, got.Config.Telegram.RunMode)
	fs, ok := got.Store.(*store.FileStore)
	require.True(t, ok)
	assert.Equal(t, dataFile, fs.Path())
	assert.NotNil(t, got.OnStart)
	assert.NotNil(t, got.OnStop)
}

func TestRootWithoutSubcommandRunsBot(t *testing.T) {
	cfgPath := writeConfig(t, filepath.Join(t.TempDir(), "data.json"))
	called := false
	_, err := execute(t, testOptions(func(context.Context, coretelegram.RunOptions) error {
		called = true
		return nil
	}), "--config", cfgPath)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestRunBadConfig(t *testing.T) {
	_, err := execute(t, testOptions(nil), "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMigrateImport(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "old.json")
	require.NoError(t, os.WriteFile(src, []byte(`{"welcome":{"-1":"Hey {name}"},"groups":[-1]}`), 0o644))
	dataFile := filepath.Join(dir, "data.json")
	cfgPath := writeConfig(t, dataFile)

	out, err := execute(t, testOptions(nil), "migrate", "--config", cfgPath, "--import", src)
	require.NoError(t, err)
	assert.Contains(t, out, "store ready (json)")
	assert.Contains(t, out, "imported 1 welcome messages, 1 new groups")

	doc, err := store.LoadDocument(dataFile)
	require.NoError(t, err)
	text, ok := doc.Welcome(-1)
	assert.True(t, ok)
	assert.Equal(t, "Hey {name}", text)
	assert.Equal(t, []int64{-1}, doc.Groups())
}

func TestMigrateImportMissingSource(t *testing.T) {
	dir := t.TempDir()
	dataFile := filepath.Join(dir, "data.json")
	cfgPath := writeConfig(t, dataFile)

	out, err := execute(t, testOptions(nil), "migrate", "--config", cfgPath, "--import", filepath.Join(dir, "dta.json"))
	require.Error(t, err)
	assert.True(t, boterr.HasCode(err, boterr.CodeStoreLoadReadFailure))
	assert.NotContains(t, out, "imported")

	_, statErr := os.Stat(dataFile)
	assert.True(t, os.IsNotExist(statErr))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, testOptions(nil), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "utilbot dev")
}
