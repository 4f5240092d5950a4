package models

// EventKind classifies catalog entries: a main event may own sub events, a
// sub event points back at its parent.
type EventKind string

const (
	KindMain EventKind = "main"
	KindSub  EventKind = "sub"
)

// Event is a read-only projection of the remote catalog. The client never
// mutates events; it only tracks membership of their ids in interest sets.
// LikeCount and GoingCount are always the server's latest values, never
// derived locally.
type Event struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	StartDate          string    `json:"start_date"`
	EndDate            string    `json:"end_date"`
	StartTime          string    `json:"start_time,omitempty"`
	EndTime            string    `json:"end_time,omitempty"`
	Location           string    `json:"location,omitempty"`
	Description        string    `json:"description,omitempty"`
	Speaker            string    `json:"speaker,omitempty"`
	Organizer          string    `json:"organizer,omitempty"`
	RegistrationNeeded string    `json:"registration_needed,omitempty"`
	URL                string    `json:"url,omitempty"`
	ImageKey           string    `json:"image_key,omitempty"`
	Kind               EventKind `json:"kind"`
	SubEventIDs        []string  `json:"sub_event_ids,omitempty"`
	ParentID           string    `json:"parent_id,omitempty"`
	LikeCount          int       `json:"like_count"`
	GoingCount         int       `json:"going_count"`
}

// UserProfile is the server's canonical view of the authenticated account.
type UserProfile struct {
	UserID            int      `json:"user_id"`
	Email             string   `json:"email"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	InterestKeys      []string `json:"interest_keys,omitempty"`
	InterestText      string   `json:"interest_text,omitempty"`
	SuggestedEventIDs []string `json:"suggested_event_ids,omitempty"`
	Theme             string   `json:"theme,omitempty"`
}

// Credentials is the authentication response: a bearer token plus the
// identity it belongs to, issued in one round trip.
type Credentials struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        UserProfile `json:"user"`
}

// ProfileUpdate carries only the fields being changed; nil means unchanged.
type ProfileUpdate struct {
	Email        *string   `json:"email,omitempty"`
	Password     *string   `json:"password,omitempty"`
	FirstName    *string   `json:"first_name,omitempty"`
	LastName     *string   `json:"last_name,omitempty"`
	InterestKeys *[]string `json:"interest_keys,omitempty"`
	InterestText *string   `json:"interest_text,omitempty"`
	Theme        *string   `json:"theme,omitempty"`
}

// Registration is the payload for creating a new account.
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
