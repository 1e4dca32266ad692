package board

import "time"

// Board is the top-level workspace resource. Field tags follow the provider's
// JSON schema so responses decode without translation.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Desc string `json:"desc"`
	URL  string `json:"url,omitempty"`
}

// BoardSummary is the trimmed shape returned by the board listing endpoint.
type BoardSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// List is an ordered grouping of cards within a board.
type List struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Card is a single work item. MemberIDs carries the provider's raw member
// references; Members holds the resolved records in the same order.
type Card struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Desc      string     `json:"desc"`
	Due       *time.Time `json:"due,omitempty"`
	Labels    []Label    `json:"labels,omitempty"`
	MemberIDs []string   `json:"idMembers,omitempty"`
	Members   []Member   `json:"members,omitempty"`
}

// Label is a tag attached to a card.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// Member is a person referenced by a card.
type Member struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

// Snapshot is one consistent aggregate of a board and its lists, assembled
// from a single round of provider fetches.
type Snapshot struct {
	Board Board  `json:"board"`
	Lists []List `json:"lists"`
}
