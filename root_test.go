package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/gdrive-go/internal/remote"
)

func TestGenerateState(t *testing.T) {
	a, err := generateState()
	require.NoError(t, err)
	assert.Len(t, a, stateTokenBytes*2)

	b, err := generateState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestReadLine(t *testing.T) {
	got, err := readLine(strings.NewReader("  code-123  \nrest"))
	require.NoError(t, err)
	assert.Equal(t, "code-123", got)
}

func TestReadLine_Empty(t *testing.T) {
	_, err := readLine(strings.NewReader(""))
	assert.Error(t, err)
}

func TestPrintListing_Table(t *testing.T) {
	flagJSON = false

	var sb strings.Builder

	err := printListing(&sb, []remote.Resource{
		{ID: "file-1", Name: "report.pdf", Size: 2048, ModifiedAt: time.Date(2026, 8, 30, 10, 15, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "file-1")
	assert.Contains(t, sb.String(), "report.pdf")
	assert.Contains(t, sb.String(), "1 files")
}

func TestPrintListing_JSON(t *testing.T) {
	flagJSON = true
	defer func() { flagJSON = false }()

	var sb strings.Builder

	err := printListing(&sb, []remote.Resource{{ID: "file-1", Name: "report.pdf"}})
	require.NoError(t, err)
	assert.Contains(t, sb.String(), `"ID": "file-1"`)
}

func TestNewRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0)
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}

	assert.Contains(t, names, "login")
	assert.Contains(t, names, "logout")
	assert.Contains(t, names, "ls")
	assert.Contains(t, names, "get")
}
