package booking

import "github.com/xtrntr/ihome/internal/models"

// Event drives an order from one status to the next
type Event string

const (
	EventAccept  Event = "accept"
	EventReject  Event = "reject"
	EventPay     Event = "pay"
	EventCancel  Event = "cancel"
	EventComment Event = "comment"
)

var transitions = map[models.OrderStatus]map[Event]models.OrderStatus{
	models.StatusWaitAccept: {
		EventAccept: models.StatusWaitPayment,
		EventReject: models.StatusRejected,
		EventCancel: models.StatusCanceled,
	},
	models.StatusWaitPayment: {
		EventPay:    models.StatusWaitComment,
		EventCancel: models.StatusCanceled,
	},
	models.StatusWaitComment: {
		EventComment: models.StatusComplete,
	},
}

// Transition returns the status reached from `from` on ev, and false when
// ev is not allowed in that status.
func Transition(from models.OrderStatus, ev Event) (models.OrderStatus, bool) {
	to, ok := transitions[from][ev]
	return to, ok
}

// Occupying reports whether an order in status s still reserves its dates.
// COMPLETE orders are historical: their dates have already passed.
func Occupying(s models.OrderStatus) bool {
	switch s {
	case models.StatusWaitAccept, models.StatusWaitPayment, models.StatusWaitComment:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s
func Terminal(s models.OrderStatus) bool {
	return len(transitions[s]) == 0
}
