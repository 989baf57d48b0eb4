package session

import (
	"fmt"
	"strings"

	"pegfall/internal/domain"
)

var (
	botAdjectives = []string{
		"Bouncy", "Lucky", "Rusty", "Swift", "Sleepy", "Clever", "Wobbly", "Shiny",
		"Grumpy", "Brave", "Sneaky", "Jolly", "Dizzy", "Mighty", "Quiet", "Zippy",
	}
	botNouns = []string{
		"Peg", "Marble", "Pebble", "Robot", "Gizmo", "Comet", "Pixel", "Bolt",
		"Sprocket", "Widget", "Nugget", "Rocket", "Button", "Gadget", "Puck", "Orbit",
	}
)

// botName draws random names from the pool, then falls back to a numbered
// name once the attempt budget is spent.
func (s *Session) botName() string {
	for range s.limits.BotNameAttempts {
		name := botAdjectives[s.rng.IntN(len(botAdjectives))] + " " + botNouns[s.rng.IntN(len(botNouns))]
		if !s.nameTaken(name) {
			return name
		}
	}
	return s.numbered("Bot")
}

// numbered returns the first free "<prefix> N".
func (s *Session) numbered(prefix string) string {
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s %d", prefix, n)
		if !s.nameTaken(name) {
			return name
		}
	}
}

func (s *Session) nameTaken(name string) bool {
	for _, p := range s.roster.Participants {
		if strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

// pickColor hands out the first palette entry nobody uses.
func (s *Session) pickColor() string {
	used := make(map[string]bool, len(s.roster.Participants))
	for _, p := range s.roster.Participants {
		used[p.Color] = true
	}
	for _, c := range domain.Palette {
		if !used[c] {
			return c
		}
	}
	return domain.Palette[len(s.roster.Participants)%len(domain.Palette)]
}
