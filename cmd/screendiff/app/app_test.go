package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complykit/screendiff/pkg/screening"
)

func TestUpdateFromFlags(t *testing.T) {
	c := &Config{Format: "json", LogLevel: "info", SourcesFile: "a.yaml"}

	c.UpdateFromFlags(true, false, "", "", "")
	assert.True(t, c.Verbose)
	// Empty flag values leave config-file values alone.
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, "a.yaml", c.SourcesFile)

	c.UpdateFromFlags(false, true, "yaml", "debug", "b.yaml")
	assert.Equal(t, "yaml", c.Format)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "b.yaml", c.SourcesFile)
}

func TestDetermineLogLevel(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{"default", Config{}, "info"},
		{"verbose", Config{Verbose: true}, "debug"},
		{"quiet", Config{Quiet: true}, "warn"},
		{"both prefers quiet", Config{Verbose: true, Quiet: true}, "warn"},
		{"explicit wins", Config{Verbose: true, LogLevel: "error"}, "error"},
		{"invalid falls back", Config{LogLevel: "shout"}, "info"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, determineLogLevel(&tt.config))
		})
	}
}

func TestParseSourceIDs(t *testing.T) {
	ids, err := parseSourceIDs([]string{"v4", "v2"})
	require.NoError(t, err)
	assert.Equal(t, []screening.SourceID{screening.SourceV4, screening.SourceV2}, ids)

	_, err = parseSourceIDs([]string{"v3"})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	a, err := New("1.2.3", "abc1234", "2026-08-30")
	require.NoError(t, err)

	cmd := a.NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "screendiff 1.2.3")
	assert.Contains(t, out.String(), "abc1234")
}

func TestRunCommandRequiresInput(t *testing.T) {
	a, err := New("dev", "", "")
	require.NoError(t, err)

	err = a.Execute(context.Background(), []string{"run"})
	assert.Error(t, err)
}

func TestSourcesCommandRejectsBadFile(t *testing.T) {
	a, err := New("dev", "", "")
	require.NoError(t, err)

	err = a.Execute(context.Background(), []string{"sources", "--sources-config", "does-not-exist.yaml"})
	assert.Error(t, err)
}
