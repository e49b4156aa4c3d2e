package model

// Item is the domain model for a listed entry.
// The server assigns ID; clients never mutate an Item once received.
type Item struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NewItem is the create payload sent to the items service.
type NewItem struct {
	Name string `json:"name"`
}
