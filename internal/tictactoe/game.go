package tictactoe

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Start errors surfaced to the command layer.
var (
	ErrSelfPlay       = errors.New("tictactoe: player cannot play against themselves")
	ErrGameInProgress = errors.New("tictactoe: a game between these players is already running")
)

var numericID = regexp.MustCompile(`^\d+$`)

// ValidOpponentID reports whether s is an acceptable opponent identifier.
func ValidOpponentID(s string) bool {
	return numericID.MatchString(s)
}

// Player is one participant of a game.
type Player struct {
	ID     string
	Name   string
	Symbol string
}

// game holds the mutable state of one match. Guarded by the Manager mutex.
type game struct {
	board           Board
	players         [2]Player
	current         int
	inProgress      bool
	restartPrompted bool
}

func (g *game) reset() {
	g.board = Board{}
	g.current = 0
	g.inProgress = true
	g.restartPrompted = false
}

func (g *game) find(senderID string) (Player, bool) {
	for _, p := range g.players {
		if p.ID == senderID {
			return p, true
		}
	}
	return Player{}, false
}

func (g *game) opponent(senderID string) Player {
	if g.players[0].ID == senderID {
		return g.players[1]
	}
	return g.players[0]
}

// Manager tracks every running game, keyed by thread and the ordered player
// pair so the same two players share one game per thread.
type Manager struct {
	mu    sync.Mutex
	games map[string]*game
}

// NewManager builds an empty Manager.
func NewManager() *Manager {
	return &Manager{games: make(map[string]*game)}
}

// gameKey orders the pair so (a,b) and (b,a) address the same game.
func gameKey(threadID, a, b string) string {
	if a > b {
		a, b = b, a
	}
	return threadID + ":" + a + ":" + b
}

// Start begins a match between the initiator and an opponent and returns the
// opening announcement. The initiator plays first with the blue symbol.
func (m *Manager) Start(threadID string, initiator, opponent Player) (string, error) {
	if initiator.ID == opponent.ID {
		return "", ErrSelfPlay
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := gameKey(threadID, initiator.ID, opponent.ID)
	if g, ok := m.games[key]; ok && g.inProgress {
		return "", ErrGameInProgress
	}

	initiator.Symbol = SymbolBlue
	opponent.Symbol = SymbolWhite
	g := &game{players: [2]Player{initiator, opponent}}
	g.reset()
	m.games[key] = g

	return fmt.Sprintf(
		"🎮| Partie de Tic-Tac-Toe entre %s 『%s』 et %s 『%s』 commence !\n%s\n%s, faites votre premier mouvement en envoyant un numéro (1-9).",
		initiator.Name, SymbolBlue, opponent.Name, SymbolWhite,
		g.board.Render(), initiator.Name), nil
}

// React processes one chat message from a thread. It returns the reply to
// send and whether the message belonged to a game. Messages from users with
// no running game, or out-of-turn moves, are not handled.
func (m *Manager) React(threadID, senderID, body string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := m.findGame(threadID, senderID)
	if g == nil {
		return "", false
	}

	if !g.inProgress {
		if !g.restartPrompted {
			g.restartPrompted = true
			return "🚀| La partie est terminée ! Tapez 'restart' pour recommencer le jeu.", true
		}
		if strings.EqualFold(strings.TrimSpace(body), "restart") {
			return m.restart(g), true
		}
		return "", false
	}

	text := strings.ToLower(strings.TrimSpace(body))
	switch text {
	case "restart":
		return m.restart(g), true
	case "forfait":
		loser, _ := g.find(senderID)
		winner := g.opponent(senderID)
		g.inProgress = false
		g.restartPrompted = true
		return fmt.Sprintf(
			"🏳️| %s a abandonné la partie. %s est déclaré vainqueur ! Tapez \"restart\" pour recommencer.",
			loser.Name, winner.Name), true
	}

	return m.move(g, senderID, text)
}

// InProgress reports whether the two players have a running game.
func (m *Manager) InProgress(threadID, a, b string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[gameKey(threadID, a, b)]
	return ok && g.inProgress
}

func (m *Manager) findGame(threadID, senderID string) *game {
	for key, g := range m.games {
		if !strings.HasPrefix(key, threadID+":") {
			continue
		}
		if _, ok := g.find(senderID); ok {
			return g
		}
	}
	return nil
}

func (m *Manager) restart(g *game) string {
	g.reset()
	p1, p2 := g.players[0], g.players[1]
	return fmt.Sprintf(
		"🎮| Nouveau jeu de Tic-Tac-Toe entre %s 『%s』 et %s 『%s』 !\n%s\n%s, vous commencez en premier, choisissez une case.",
		p1.Name, p1.Symbol, p2.Name, p2.Symbol, g.board.Render(), p1.Name)
}

func (m *Manager) move(g *game, senderID, text string) (string, bool) {
	current := g.players[g.current]

	pos, err := strconv.Atoi(text)
	pos--
	if err != nil || pos < 0 || pos > 8 || g.board[pos] != "" {
		return fmt.Sprintf("%s, c'est toujours à votre tour !", current.Name), true
	}
	if senderID != current.ID {
		// Out-of-turn moves are dropped without a reply.
		return "", false
	}

	g.board[pos] = current.Symbol

	if winner := g.board.Winner(); winner != "" {
		g.inProgress = false
		g.restartPrompted = true
		winnerPlayer := g.players[0]
		if g.players[1].Symbol == winner {
			winnerPlayer = g.players[1]
		}
		return fmt.Sprintf("%s\n🎉| %s a gagné ! Tapez \"restart\" pour recommencer.",
			g.board.Render(), winnerPlayer.Name), true
	}
	if g.board.Full() {
		g.inProgress = false
		g.restartPrompted = true
		return fmt.Sprintf("%s\n🤝| Match nul ! Tapez 'restart' pour recommencer.",
			g.board.Render()), true
	}

	g.current = (g.current + 1) % 2
	next := g.players[g.current]
	return fmt.Sprintf("%s\n%s, c'est à votre tour !", g.board.Render(), next.Name), true
}
