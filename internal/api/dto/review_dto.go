package dto

// ReviewActionRequest payload for reviewer workflow actions.
type ReviewActionRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment"`
}
