package domain

// Participant is one connected client inside a room. The display name can be
// changed by the client later; the color never changes for a given ID.
type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// NewParticipant derives the default presentation for a freshly connected
// client: a short form of the connection ID as the name and a stable color.
func NewParticipant(id string) Participant {
	return Participant{
		ID:    id,
		Name:  "User " + shortID(id),
		Color: ColorFor(id),
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
