package types

import "time"

// Action is what the bot should do next for the user.
type Action string

const (
	ActionNewExercise         Action = "new_exercise"
	ActionPraiseAndNextSet    Action = "praise_and_next_set"
	ActionCongratulationsWait Action = "congratulations_and_wait"
	ActionLimitReached        Action = "limit_reached"
	ActionError               Action = "error"
)

// PaymentOffer is the affordance attached to pause states so the client can
// render a "skip the wait" purchase button. Processing the payment is not
// this service's concern.
type PaymentOffer struct {
	ButtonText string `json:"button_text"`
	Title      string `json:"title"`
	Amount     int    `json:"amount"`
	Currency   string `json:"currency"`
	Payload    string `json:"invoice_payload,omitempty"`
}

// NextAction is the orchestrator's decision. Exercise is set only for
// new_exercise; Pause only for the waiting states. Pause and Message are
// computed at response time so repeated polling shows a shrinking countdown.
type NextAction struct {
	Action   Action        `json:"action"`
	Exercise *Exercise     `json:"exercise,omitempty"`
	Message  string        `json:"message,omitempty"`
	Pause    time.Duration `json:"pause,omitempty"`
	Payment  *PaymentOffer `json:"payment,omitempty"`
}
