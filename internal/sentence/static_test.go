package sentence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/speedtype/internal/model"
)

func TestStaticPicksFromTable(t *testing.T) {
	src, err := NewStatic(DefaultSentences)
	require.NoError(t, err)
	assert.Equal(t, 5, src.Len())
	for i := 0; i < 20; i++ {
		got, err := src.NextSentence(context.Background())
		require.NoError(t, err)
		assert.Contains(t, DefaultSentences, got)
	}
}

func TestStaticRejectsEmptyTable(t *testing.T) {
	_, err := NewStatic([]string{"", "  \n"})
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestStaticHonoursCancelledContext(t *testing.T) {
	src, err := NewStatic([]string{"one"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.NextSentence(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentences.yaml")
	data := "sentences:\n  - \"Pack my box with\n    five dozen liquor jugs.\"\n  - \"\"\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	src, err := LoadFile(path)
	require.NoError(t, err)
	got, err := src.NextSentence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Pack my box with five dozen liquor jugs.", got)
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("sentences: []\n"), 0o644))
	_, err = LoadFile(empty)
	assert.ErrorIs(t, err, ErrEmptyTable)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("sentences: [unclosed\n"), 0o644))
	_, err = LoadFile(broken)
	assert.Error(t, err)
}

type fakeGenerator struct {
	text   string
	err    error
	prompt string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.text, g.err
}

func TestRemoteCleansResponse(t *testing.T) {
	gen := &fakeGenerator{text: "1. \"The sun rose early.\"\n\n2. Birds sang  loudly.\n"}
	got, err := NewRemote(gen, "").NextSentence(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "The sun rose early. Birds sang loudly.", got)
	assert.Equal(t, GeneratePrompt, gen.prompt)
}

func TestRemoteErrors(t *testing.T) {
	_, err := NewRemote(&fakeGenerator{err: errors.New("quota")}, "").NextSentence(context.Background())
	assert.Error(t, err)

	_, err = NewRemote(&fakeGenerator{text: " \n "}, "").NextSentence(context.Background())
	assert.Error(t, err)
}

func TestNewSelectsSource(t *testing.T) {
	src, err := New(model.Settings{}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Static{}, src)

	src, err = New(model.Settings{SentenceSource: "ai"}, &fakeGenerator{})
	require.NoError(t, err)
	assert.IsType(t, &Remote{}, src)

	_, err = New(model.Settings{SentenceSource: "ai"}, nil)
	assert.Error(t, err)
	_, err = New(model.Settings{SentenceSource: "file"}, nil)
	assert.Error(t, err)
	_, err = New(model.Settings{SentenceSource: "nope"}, nil)
	assert.Error(t, err)
	assert.False(t, ValidSource("nope"))
	assert.True(t, ValidSource("Words"))
}
