package entity

// Player is one row of the score ranking.
type Player struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
}
