package events

// RawEvent is a single user interaction as delivered by the tracking
// pipeline. Events are immutable once ingested; the Timestamp field is
// kept in its wire form (string or number) and normalized on demand.
type RawEvent struct {
	SessionID    string  `json:"session_id"`
	EventName    string  `json:"event_name"`
	Timestamp    any     `json:"timestamp"`
	ItemID       string  `json:"item_id,omitempty"`
	ItemName     string  `json:"item_name,omitempty"`
	ItemCategory string  `json:"item_category,omitempty"`
	Price        float64 `json:"price,omitempty"`
	Value        float64 `json:"value,omitempty"`
	PageLocation string  `json:"page_location,omitempty"`
	PageTitle    string  `json:"page_title,omitempty"`
	SearchTerm   string  `json:"search_term,omitempty"`
	UserID       string  `json:"user_id,omitempty"`
}

// Millis returns the event's timestamp normalized to Unix milliseconds.
// The second return value is false when the timestamp cannot be parsed.
func (e RawEvent) Millis() (int64, bool) {
	return NormalizeTimestamp(e.Timestamp)
}

// GroupBySession partitions a batch by session id, preserving the input
// order of events within each session.
func GroupBySession(batch []RawEvent) map[string][]RawEvent {
	groups := make(map[string][]RawEvent)
	for _, ev := range batch {
		groups[ev.SessionID] = append(groups[ev.SessionID], ev)
	}
	return groups
}
