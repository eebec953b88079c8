package output_test

import (
	"bytes"
	"testing"

	"github.com/Leopold1975/readlater/internal/readlater/cli/output"
	"github.com/Leopold1975/readlater/internal/readlater/domain/models"
	"github.com/stretchr/testify/require"
)

func TestParseColorMode(t *testing.T) {
	for in, want := range map[string]output.ColorMode{
		"":       output.ColorAuto,
		"auto":   output.ColorAuto,
		"always": output.ColorAlways,
		"never":  output.ColorNever,
	} {
		got, err := output.ParseColorMode(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := output.ParseColorMode("sometimes")
	require.Error(t, err)
}

func TestResolveColors(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	require.True(t, output.ResolveColors(output.ColorAlways))
	require.False(t, output.ResolveColors(output.ColorNever))
	require.False(t, output.ResolveColors(output.ColorAuto))
}

func TestPrinterPlain(t *testing.T) {
	var out, errOut bytes.Buffer

	p := output.NewPrinter(&out, &errOut, false)
	p.Success("saved %d", 3)
	p.Error("boom")
	p.Header("Title")

	require.Contains(t, out.String(), "[OK] saved 3")
	require.Contains(t, out.String(), "Title\n-----\n")
	require.Equal(t, "[ERROR] boom\n", errOut.String())
}

func TestArticlesTable(t *testing.T) {
	var out bytes.Buffer

	err := output.Articles(&out, []models.Article{
		{ID: 7, Title: "Pipelines", URL: "https://go.dev/blog/pipelines", Tags: []models.Tag{{ID: 2, Name: "go"}}},
	})
	require.NoError(t, err)

	s := out.String()
	require.Contains(t, s, "Pipelines")
	require.Contains(t, s, "go#2")
	require.Contains(t, s, "https://go.dev/blog/pipelines")
}

func TestTagList(t *testing.T) {
	require.Equal(t, "a#1, b#2", output.TagList([]models.Tag{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}))
	require.Empty(t, output.TagList(nil))
}
