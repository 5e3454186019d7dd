package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dhelicopters/pubquiz/internal/logging"

	"github.com/gorilla/websocket"
)

// Role is the identity bound to a live connection.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleTeam       Role = "team"
	RoleScoreboard Role = "scoreboard"
)

// Audience selects the subset of a quiz's connections a broadcast reaches.
type Audience string

const (
	AudienceOwner      Audience = "owner-only"
	AudienceTeams      Audience = "teams-only"
	AudienceScoreboard Audience = "scoreboard-only"
)

func (a Audience) matches(role Role) bool {
	switch a {
	case AudienceOwner:
		return role == RoleOwner
	case AudienceTeams:
		return role == RoleTeam
	case AudienceScoreboard:
		return role == RoleScoreboard
	}
	return false
}

// Event types pushed to clients. Payload-free: receivers re-fetch state.
const (
	EventJoinedTeams      = "UPDATE_JOINED_TEAMS"
	EventDefinitiveTeams  = "UPDATE_DEFINITIVE_TEAMS"
	EventActiveQuestion   = "UPDATE_ACTIVE_QUESTION"
	EventClosedQuestion   = "UPDATE_CLOSED_QUESTION"
	EventJudgedQuestions  = "UPDATE_JUDGED_QUESTIONS"
	EventGivenTeamAnswers = "UPDATE_GIVEN_TEAM_ANSWERS"
)

// Identity is what a connection is bound to. TeamName is set only for RoleTeam.
type Identity struct {
	Role     Role
	QuizCode string
	TeamName string
}

const writeTimeout = 5 * time.Second

// client owns the outbound side of one connection. Broadcasts enqueue to send
// and never wait for network completion; the writer goroutine drains it.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *client) run() {
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) enqueue(msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

type member struct {
	identity Identity
	client   *client
}

// Registry tracks every live connection and the identity bound to it, indexed
// by quiz code. It also routes audience-filtered broadcasts and closes team
// connections dropped from the definitive roster.
type Registry struct {
	mu      sync.RWMutex
	quizzes map[string]map[*websocket.Conn]*member
	conns   map[*websocket.Conn]string
}

func NewRegistry() *Registry {
	return &Registry{
		quizzes: make(map[string]map[*websocket.Conn]*member),
		conns:   make(map[*websocket.Conn]string),
	}
}

// Bind registers the connection under the given identity. Binding an already
// registered connection re-binds it, moving it between quiz buckets while
// keeping its writer.
func (r *Registry) Bind(conn *websocket.Conn, id Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var cl *client
	if prev, ok := r.conns[conn]; ok {
		if m, ok := r.quizzes[prev][conn]; ok {
			cl = m.client
		}
		delete(r.quizzes[prev], conn)
		if len(r.quizzes[prev]) == 0 {
			delete(r.quizzes, prev)
		}
	}
	if cl == nil {
		cl = newClient(conn)
	}

	if r.quizzes[id.QuizCode] == nil {
		r.quizzes[id.QuizCode] = make(map[*websocket.Conn]*member)
	}
	r.quizzes[id.QuizCode][conn] = &member{identity: id, client: cl}
	r.conns[conn] = id.QuizCode

	logging.WithQuiz(id.QuizCode).Debug("connection bound",
		"role", string(id.Role), "team", id.TeamName)
}

// Remove drops the connection and stops its writer. Safe to call twice.
func (r *Registry) Remove(conn *websocket.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(conn)
}

func (r *Registry) remove(conn *websocket.Conn) {
	code, ok := r.conns[conn]
	if !ok {
		return
	}
	if m, ok := r.quizzes[code][conn]; ok {
		m.client.close()
	}
	delete(r.quizzes[code], conn)
	if len(r.quizzes[code]) == 0 {
		delete(r.quizzes, code)
	}
	delete(r.conns, conn)
}

// Broadcast delivers a payload-free event to every live connection matching
// both the quiz code and the audience. Delivery is best effort: a slow or
// broken connection is dropped, never blocking the others or the caller.
func (r *Registry) Broadcast(code string, audience Audience, event string) {
	data, err := json.Marshal(map[string]string{"type": event})
	if err != nil {
		logging.WithError(err).Warn("marshaling broadcast event", "event", event)
		return
	}

	var slow []*websocket.Conn

	r.mu.RLock()
	for conn, m := range r.quizzes[code] {
		if !audience.matches(m.identity.Role) {
			continue
		}
		if !m.client.enqueue(data) {
			slow = append(slow, conn)
		}
	}
	r.mu.RUnlock()

	if len(slow) == 0 {
		return
	}
	r.mu.Lock()
	for _, conn := range slow {
		logging.WithQuiz(code).Warn("dropping slow connection", "event", event)
		r.remove(conn)
	}
	r.mu.Unlock()
}

// PruneTeams closes every team connection of the quiz whose team is not in
// keep. Invoked after a definitive roster replace; other roles are untouched.
func (r *Registry) PruneTeams(code string, keep []string) {
	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for conn, m := range r.quizzes[code] {
		if m.identity.Role != RoleTeam || kept[m.identity.TeamName] {
			continue
		}
		logging.WithQuiz(code).Info("closing pruned team connection",
			"team", m.identity.TeamName)
		r.remove(conn)
	}
}

// Count reports the live connections bound to a quiz code.
func (r *Registry) Count(code string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.quizzes[code])
}

// Drain closes every connection. Called at server shutdown.
func (r *Registry) Drain() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, members := range r.quizzes {
		for _, m := range members {
			m.client.close()
		}
	}
	r.quizzes = make(map[string]map[*websocket.Conn]*member)
	r.conns = make(map[*websocket.Conn]string)
}
