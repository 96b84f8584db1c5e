package broadcaster

import "time"

// Message is an event pushed to every connection joined as UserId.
type Message struct {
	Id         string    `json:"-"`
	CreateTime time.Time `json:"-"`
	UserId     string    `json:"-"`
	Event      string    `json:"event"`
	Payload    any       `json:"data"`
}
