package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/epiwordle/internal/config"
	"github.com/robalobadob/epiwordle/internal/words"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()), out.String())
	return out.String()
}

func TestWordsImportAndStats(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("WORDLE_STORAGE_PATH", filepath.Join(dir, "wordle.db"))
	t.Setenv("WORDLE_LOG_LEVEL", "error")

	list := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(list, []byte("# fruits\nPomme\npoire\nkiwi\nPOMME\n\ncitron\n"), 0o600))

	assert.Equal(t, "imported 2 words (2 rejected)\n", run(t, "words", "import", list))
	assert.Contains(t, run(t, "words", "stats"), "active: 2")

	retire := filepath.Join(dir, "retire.txt")
	require.NoError(t, os.WriteFile(retire, []byte("poire\n"), 0o600))
	run(t, "words", "import", "--inactive", retire)

	out := run(t, "words", "stats")
	assert.Contains(t, out, "active: 1")
	assert.Contains(t, out, "total:  2")
}

func TestWordsImport_MissingFile(t *testing.T) {
	t.Setenv("WORDLE_STORAGE_PATH", filepath.Join(t.TempDir(), "wordle.db"))
	cmd := newRootCmd()
	cmd.SetArgs([]string{"words", "import", "/does/not/exist.txt"})
	cmd.SetOut(&bytes.Buffer{})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestSeedWords(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Storage: config.StorageConfig{Path: filepath.Join(t.TempDir(), "wordle.db")}}
	conn, err := openDatabase(ctx, cfg)
	require.NoError(t, err)
	defer conn.Close()
	dict := words.NewSQLDictionary(conn)

	require.NoError(t, seedWords(ctx, dict, ""))
	active, total, err := dict.Stats(ctx)
	require.NoError(t, err)
	assert.Positive(t, total)
	assert.Equal(t, total, active)

	// an already seeded dictionary never touches the file
	require.NoError(t, seedWords(ctx, dict, "/does/not/exist.txt"))
	_, again, err := dict.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, total, again)

	w, err := dict.PickRandom(ctx)
	require.NoError(t, err)
	assert.True(t, words.IsWord(w.Normalized, words.Length))
}

func TestSeedWords_FromFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := &config.Config{Storage: config.StorageConfig{Path: filepath.Join(dir, "wordle.db")}}
	conn, err := openDatabase(ctx, cfg)
	require.NoError(t, err)
	defer conn.Close()
	dict := words.NewSQLDictionary(conn)

	file := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(file, []byte("fleur\nécole\n"), 0o600))
	require.NoError(t, seedWords(ctx, dict, file))

	ok, err := dict.IsActive(ctx, "ecole")
	require.NoError(t, err)
	assert.True(t, ok)
	_, total, _ := dict.Stats(ctx)
	assert.Equal(t, 2, total)
}

func TestNewChatStore_Memory(t *testing.T) {
	s, closeFn, err := newChatStore(context.Background(), config.ChatConfig{Driver: "memory", MaxMessages: 3})
	require.NoError(t, err)
	defer closeFn()
	assert.NotNil(t, s)
}
