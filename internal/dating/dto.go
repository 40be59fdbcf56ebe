// internal/dating/dto.go
package dating

// DTOs for API requests/responses

type DecisionDTO struct {
	Action string `json:"action" validate:"required,oneof=like pass"`
}

// Liked reports whether the decision is a like
func (d *DecisionDTO) Liked() bool {
	return d.Action == "like"
}

type QueueParams struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=200"`
}

type RegenerateResponse struct {
	UserID      string `json:"userId"`
	Regenerated bool   `json:"regenerated"`
}

type MessageNotifyResponse struct {
	MatchID string `json:"matchId"`
	Sent    bool   `json:"sent"`
}

type LinkResponse struct {
	LinkID  string `json:"linkId"`
	MatchID string `json:"matchId"`
	UserID  string `json:"userId"`
	Match   *Match `json:"match"`
}
