// Command ws_smoke joins a running server, adds a bot, plays one round and
// prints the mirrored roster once the round is over.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"pegfall/internal/delta"
	"pegfall/internal/domain"
	"pegfall/internal/wire"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "server host:port")
	room := flag.String("room", "smoke", "room code")
	token := flag.String("token", "", "connection ticket (pegfall ticket)")
	timeout := flag.Duration("timeout", 30*time.Second, "give up after")
	flag.Parse()

	q := url.Values{"room": {*room}}
	if *token != "" {
		q.Set("token", *token)
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: q.Encode()}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("dial %s: %v", u.String(), err)
	}
	defer conn.Close()

	send := func(v map[string]any) {
		b, _ := json.Marshal(v)
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Fatalf("write: %v", err)
		}
	}

	var (
		mirror domain.Roster
		self   string
	)
	deadline := time.Now().Add(*timeout)

	send(map[string]any{"type": "join", "name": "smoke"})
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("read: %v", err)
		}

		if typ == websocket.TextMessage {
			var env struct {
				Type    string          `json:"type"`
				Payload json.RawMessage `json:"payload"`
			}
			_ = json.Unmarshal(msg, &env)
			log.Printf("text %s %s", env.Type, env.Payload)
			if env.Type == "joined" {
				var p struct {
					ParticipantID string `json:"participantId"`
				}
				_ = json.Unmarshal(env.Payload, &p)
				self = p.ParticipantID
				send(map[string]any{"type": "addBot"})
				send(map[string]any{"type": "startRound"})
			}
			continue
		}

		m, err := wire.Decode(msg)
		if err != nil {
			log.Fatalf("decode %d bytes: %v", len(msg), err)
		}
		switch m := m.(type) {
		case wire.RosterState:
			prev := mirror.Phase
			mirror = delta.Apply(mirror, m.Delta)
			log.Printf("roster full=%v phase=%s participants=%d", m.Delta.Full, mirror.Phase, len(mirror.Participants))
			if prev != domain.PhasePlaying && mirror.Phase == domain.PhasePlaying {
				send(map[string]any{"type": "dropBall", "x": 400})
			}
		case wire.BallSpawn:
			log.Printf("ball spawn %s at %.1f", m.ParticipantID, m.X)
			if m.ParticipantID == self {
				send(map[string]any{"type": "scoreReport", "points": 42})
			}
		default:
			log.Printf("event %s", m.Kind())
		}

		if mirror.Phase == domain.PhaseRoundOver {
			for _, p := range mirror.Participants {
				fmt.Printf("%-20s bot=%-5v score=%s cheater=%v\n", p.Name, p.Bot, p.Score, p.Cheater)
			}
			log.Println("smoke test finished")
			return
		}
	}
	log.Fatalf("round did not finish within %v", *timeout)
}
