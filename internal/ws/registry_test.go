package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRegistry sets up a Registry behind a test HTTP server that upgrades
// connections and binds them from query parameters. Returns the registry and
// a dial function.
func testRegistry(t *testing.T) (*Registry, func(id Identity) *gws.Conn) {
	t.Helper()

	registry := NewRegistry()
	t.Cleanup(registry.Drain)

	upgrader := gws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}

		registry.Bind(conn, Identity{
			Role:     Role(r.URL.Query().Get("role")),
			QuizCode: r.URL.Query().Get("quiz"),
			TeamName: r.URL.Query().Get("team"),
		})

		go func() {
			defer registry.Remove(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}))
	t.Cleanup(server.Close)

	dial := func(id Identity) *gws.Conn {
		t.Helper()
		url := "ws" + strings.TrimPrefix(server.URL, "http") +
			"?role=" + string(id.Role) + "&quiz=" + id.QuizCode + "&team=" + id.TeamName
		conn, _, err := gws.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { conn.Close() })
		return conn
	}

	return registry, dial
}

func waitForCount(r *Registry, code string, expected int) bool {
	for i := 0; i < 100; i++ {
		if r.Count(code) == expected {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func readEvent(t *testing.T, conn *gws.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]string
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg["type"]
}

// expectSilence asserts that nothing arrives on the connection.
func expectSilence(t *testing.T, conn *gws.Conn) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline"),
		"expected a read timeout, got: %v", err)
}

func TestBroadcastTeamsOnly(t *testing.T) {
	registry, dial := testRegistry(t)

	owner := dial(Identity{Role: RoleOwner, QuizCode: "Q1"})
	team := dial(Identity{Role: RoleTeam, QuizCode: "Q1", TeamName: "Alpha"})
	board := dial(Identity{Role: RoleScoreboard, QuizCode: "Q1"})
	otherQuiz := dial(Identity{Role: RoleTeam, QuizCode: "Q2", TeamName: "Gamma"})
	require.True(t, waitForCount(registry, "Q1", 3))
	require.True(t, waitForCount(registry, "Q2", 1))

	registry.Broadcast("Q1", AudienceTeams, EventActiveQuestion)

	assert.Equal(t, EventActiveQuestion, readEvent(t, team))
	expectSilence(t, owner)
	expectSilence(t, board)
	expectSilence(t, otherQuiz)
}

func TestBroadcastOwnerOnly(t *testing.T) {
	registry, dial := testRegistry(t)

	owner := dial(Identity{Role: RoleOwner, QuizCode: "Q1"})
	team := dial(Identity{Role: RoleTeam, QuizCode: "Q1", TeamName: "Alpha"})
	require.True(t, waitForCount(registry, "Q1", 2))

	registry.Broadcast("Q1", AudienceOwner, EventJoinedTeams)

	assert.Equal(t, EventJoinedTeams, readEvent(t, owner))
	expectSilence(t, team)
}

func TestBroadcastScoreboardOnly(t *testing.T) {
	registry, dial := testRegistry(t)

	owner := dial(Identity{Role: RoleOwner, QuizCode: "Q1"})
	team := dial(Identity{Role: RoleTeam, QuizCode: "Q1", TeamName: "Alpha"})
	board := dial(Identity{Role: RoleScoreboard, QuizCode: "Q1"})
	otherBoard := dial(Identity{Role: RoleScoreboard, QuizCode: "Q2"})
	require.True(t, waitForCount(registry, "Q1", 3))
	require.True(t, waitForCount(registry, "Q2", 1))

	registry.Broadcast("Q1", AudienceScoreboard, EventJudgedQuestions)

	assert.Equal(t, EventJudgedQuestions, readEvent(t, board))
	expectSilence(t, owner)
	expectSilence(t, team)
	expectSilence(t, otherBoard)
}

func TestBroadcastNoConnections(t *testing.T) {
	registry, _ := testRegistry(t)
	// Should not panic.
	registry.Broadcast("Q1", AudienceTeams, EventActiveQuestion)
}

func TestPruneTeamsClosesDroppedTeams(t *testing.T) {
	registry, dial := testRegistry(t)

	owner := dial(Identity{Role: RoleOwner, QuizCode: "Q1"})
	alpha := dial(Identity{Role: RoleTeam, QuizCode: "Q1", TeamName: "Alpha"})
	beta := dial(Identity{Role: RoleTeam, QuizCode: "Q1", TeamName: "Beta"})
	gamma := dial(Identity{Role: RoleTeam, QuizCode: "Q1", TeamName: "Gamma"})
	otherGamma := dial(Identity{Role: RoleTeam, QuizCode: "Q2", TeamName: "Gamma"})
	require.True(t, waitForCount(registry, "Q1", 4))

	registry.PruneTeams("Q1", []string{"Alpha", "Beta"})
	require.True(t, waitForCount(registry, "Q1", 3))

	// Gamma's connection is force-closed.
	gamma.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := gamma.ReadMessage()
	require.Error(t, err)

	// The survivors still receive broadcasts; other quizzes are untouched.
	registry.Broadcast("Q1", AudienceTeams, EventDefinitiveTeams)
	assert.Equal(t, EventDefinitiveTeams, readEvent(t, alpha))
	assert.Equal(t, EventDefinitiveTeams, readEvent(t, beta))
	expectSilence(t, owner)

	assert.Equal(t, 1, registry.Count("Q2"))
	_ = otherGamma
}

func TestRebindMovesConnection(t *testing.T) {
	registry, dial := testRegistry(t)

	conn := dial(Identity{Role: RoleScoreboard, QuizCode: "Q1"})
	require.True(t, waitForCount(registry, "Q1", 1))

	registry.Broadcast("Q1", AudienceTeams, EventActiveQuestion)
	expectSilence(t, conn)

	// Grab the server-side *websocket.Conn and re-bind it as a team.
	registry.mu.Lock()
	var server *gws.Conn
	for c := range registry.quizzes["Q1"] {
		server = c
	}
	registry.mu.Unlock()
	require.NotNil(t, server)

	registry.Bind(server, Identity{Role: RoleTeam, QuizCode: "Q1", TeamName: "Alpha"})
	assert.Equal(t, 1, registry.Count("Q1"))

	registry.Broadcast("Q1", AudienceTeams, EventActiveQuestion)
	assert.Equal(t, EventActiveQuestion, readEvent(t, conn))
}

func TestRemoveIsIdempotent(t *testing.T) {
	registry, dial := testRegistry(t)

	dial(Identity{Role: RoleTeam, QuizCode: "Q1", TeamName: "Alpha"})
	require.True(t, waitForCount(registry, "Q1", 1))

	registry.mu.Lock()
	var server *gws.Conn
	for c := range registry.quizzes["Q1"] {
		server = c
	}
	registry.mu.Unlock()

	registry.Remove(server)
	registry.Remove(server)
	assert.Equal(t, 0, registry.Count("Q1"))
}

func TestDrainClosesEverything(t *testing.T) {
	registry, dial := testRegistry(t)

	conn1 := dial(Identity{Role: RoleTeam, QuizCode: "Q1", TeamName: "Alpha"})
	conn2 := dial(Identity{Role: RoleScoreboard, QuizCode: "Q2"})
	require.True(t, waitForCount(registry, "Q1", 1))
	require.True(t, waitForCount(registry, "Q2", 1))

	registry.Drain()

	for _, conn := range []*gws.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, _, err := conn.ReadMessage()
		require.Error(t, err)
	}
	assert.Equal(t, 0, registry.Count("Q1"))
	assert.Equal(t, 0, registry.Count("Q2"))
}
