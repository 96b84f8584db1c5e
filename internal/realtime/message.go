package realtime

import "encoding/json"

// Frame is the envelope of every text message exchanged over the socket.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinPayload struct {
	UserId string `json:"userId"`
	Role   string `json:"role"`
}

func NewFrame(event string, data any) (Frame, error) {
	if data == nil {
		return Frame{Event: event}, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return Frame{}, err
	}

	return Frame{event, raw}, nil
}
