package anilist

// User is the catalog's identity record for a display name.
type User struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Avatar struct {
		Large string `json:"large"`
	} `json:"avatar"`
}

// PartialDate is a fuzzy calendar date; any component may be absent.
type PartialDate struct {
	Year  *int `json:"year"`
	Month *int `json:"month"`
	Day   *int `json:"day"`
}

type Title struct {
	UserPreferred *string `json:"userPreferred"`
	English       *string `json:"english"`
	Romaji        *string `json:"romaji"`
	Native        *string `json:"native"`
}

type Media struct {
	ID          int    `json:"id"`
	Title       Title  `json:"title"`
	Description string `json:"description"`
	CoverImage  struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	AverageScore *int16 `json:"averageScore"`
}

// Entry is one media on one of the user's sub-lists.
type Entry struct {
	ScoreRaw    *int16      `json:"scoreRaw"`
	StartedAt   PartialDate `json:"startedAt"`
	CompletedAt PartialDate `json:"completedAt"`
	Media       Media       `json:"media"`
}

// List is a named sub-list ("Completed", "Watching", "Planning", ...).
type List struct {
	Name    string  `json:"name"`
	Entries []Entry `json:"entries"`
}

type userResponse struct {
	Data struct {
		User *User `json:"User"`
	} `json:"data"`
}

type listResponse struct {
	Data struct {
		MediaListCollection struct {
			Lists []List `json:"lists"`
		} `json:"MediaListCollection"`
	} `json:"data"`
}
