package models

import "time"

// SourceType identifies which ingestion channel produced an item.
type SourceType string

const (
	SourcePhoto      SourceType = "photo"
	SourceScreenshot SourceType = "screenshot"
	SourcePDF        SourceType = "pdf"
	SourceURL        SourceType = "url"
	SourceAudio      SourceType = "audio"
	SourceManual     SourceType = "manual"
)

// ValidSourceType reports whether s is one of the known source types.
func ValidSourceType(s SourceType) bool {
	switch s {
	case SourcePhoto, SourceScreenshot, SourcePDF, SourceURL, SourceAudio, SourceManual:
		return true
	}
	return false
}

// ItemStatus is the lifecycle state of a list item. Both transitions are
// always legal: pending -> completed and back.
type ItemStatus string

const (
	StatusPending   ItemStatus = "pending"
	StatusCompleted ItemStatus = "completed"
)

// ValidItemStatus reports whether s is a known status value.
func ValidItemStatus(s ItemStatus) bool {
	return s == StatusPending || s == StatusCompleted
}

// List represents one extraction session or user-named collection.
// ItemCount is recomputed from the live row count on every item write.
type List struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ItemCount   int       `json:"itemCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListItem is one extracted entry belonging to exactly one List.
type ListItem struct {
	ID          int64      `json:"id"`
	ListID      int64      `json:"listId"`
	Name        string     `json:"name"`
	Category    string     `json:"category"`
	Quantity    string     `json:"quantity,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Explanation string     `json:"explanation,omitempty"`
	Status      ItemStatus `json:"status"`
	SourceType  SourceType `json:"sourceType"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	ExtractedAt time.Time  `json:"extractedAt"`
	// Metadata is opaque serialized JSON; the persistence layer never
	// interprets it.
	Metadata string `json:"metadata,omitempty"`
}

// ListWithItems combines a list with its items in insertion order.
type ListWithItems struct {
	List  List       `json:"list"`
	Items []ListItem `json:"items"`
}

// ItemUpdate is a partial update for a list item. Nil fields are left
// untouched; only this allow-list of fields is mutable.
type ItemUpdate struct {
	Name     *string     `json:"name"`
	Category *string     `json:"category"`
	Quantity *string     `json:"quantity"`
	Notes    *string     `json:"notes"`
	Status   *ItemStatus `json:"status"`
}

// CategoryCount is one row of the category breakdown.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Statistics is the aggregate view over all lists and items.
type Statistics struct {
	TotalLists     int             `json:"totalLists"`
	TotalItems     int             `json:"totalItems"`
	PendingItems   int             `json:"pendingItems"`
	CompletedItems int             `json:"completedItems"`
	Categories     []CategoryCount `json:"categories"`
}
