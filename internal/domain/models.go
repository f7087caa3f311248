package domain

// Todo is a single search result
type Todo struct {
	ID        int    `json:"id"`
	UserID    int    `json:"userId,omitempty"`
	Title     string `json:"title"`
	Completed bool   `json:"completed,omitempty"`
}

// Profile represents the signed-in user
type Profile struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Settings holds the user-facing preferences shown on the dashboard
type Settings struct {
	ShowCompleted bool
	MaxResults    int
	Offline       bool
}

// Dashboard is the combined view of profile, notification count and settings
type Dashboard struct {
	Profile       Profile
	Notifications int // open todos
	Settings      Settings
}
