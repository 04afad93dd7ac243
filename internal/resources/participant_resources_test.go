package resources

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/quorumslot/internal/calfile"
	"github.com/teemow/quorumslot/internal/server"
)

func newFileContext(t *testing.T) (*server.ServerContext, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alice.txt"),
		[]byte("2022-05-15 08:00:00 - 2022-05-15 09:00:00\n2022-05-15 11:00:00 - 2022-05-15 12:00:00\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bob.txt"), []byte("# nothing booked\n"), 0o600))

	sc, err := server.NewServerContext(context.Background(), &server.FileSource{
		Dir:     dir,
		Options: calfile.Options{Location: time.UTC},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, dir
}

func readRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{Params: mcp.ReadResourceParams{URI: uri}}
}

func decode(t *testing.T, contents []mcp.ResourceContents, v interface{}) {
	t.Helper()
	require.Len(t, contents, 1)
	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	require.NoError(t, json.Unmarshal([]byte(text.Text), v))
}

func TestRegisterParticipantResources(t *testing.T) {
	sc, _ := newFileContext(t)
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithResourceCapabilities(false, false))
	require.NoError(t, RegisterParticipantResources(s, sc))

	assert.Error(t, RegisterParticipantResources(s, nil))
}

func TestHandleParticipants(t *testing.T) {
	sc, _ := newFileContext(t)

	contents, err := handleParticipants(context.Background(), readRequest(URIParticipants), sc)
	require.NoError(t, err)

	var got []participantEntry
	decode(t, contents, &got)
	assert.Equal(t, []participantEntry{
		{ID: "alice", BusyIntervals: 2},
		{ID: "bob", BusyIntervals: 0},
	}, got)
}

func TestHandleStatus(t *testing.T) {
	sc, dir := newFileContext(t)

	contents, err := handleStatus(context.Background(), readRequest(URIStatus), sc)
	require.NoError(t, err)

	var got statusEntry
	decode(t, contents, &got)
	assert.Equal(t, "files", got.Source)
	assert.Equal(t, 2, got.Participants)
	assert.NotEmpty(t, got.LoadedAt)
	assert.Empty(t, got.ReloadError)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "carol.txt"), []byte("not a date\n"), 0o600))
	err = sc.Reload(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, server.ErrShutdown))

	contents, err = handleStatus(context.Background(), readRequest(URIStatus), sc)
	require.NoError(t, err)
	got = statusEntry{}
	decode(t, contents, &got)
	assert.Equal(t, 2, got.Participants)
	assert.NotEmpty(t, got.ReloadError)
}
