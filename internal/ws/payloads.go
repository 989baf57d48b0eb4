package ws

import "encoding/json"

// Message is the envelope of every JSON text frame.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// server → client
type WelcomePayload struct {
	RoomCode     string `json:"roomCode"`
	ConnectionID string `json:"connectionId"`
	Phase        string `json:"phase"`
	Round        int    `json:"round"`
}

type JoinedPayload struct {
	ParticipantID string `json:"participantId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func textFrame(typ string, payload any) (Frame, error) {
	data, err := json.Marshal(Message{Type: typ, Payload: payload})
	if err != nil {
		return Frame{}, err
	}
	return Frame{Data: data}, nil
}
