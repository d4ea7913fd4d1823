package mq

import (
	"github.com/google/uuid"
)

type Action int

const (
	ActionCreate Action = iota
	ActionUpdate
	ActionCnt
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionUpdate:
		return "update"
	}
	return "unknown"
}

// TripFeedMessage announces one change to a trip document. A message
// is visible on two topics: the owner's (trip list feeds) and the
// trip's own (trip detail feeds).
type TripFeedMessage struct {
	TripID   uuid.UUID `json:"tripId"`
	OwnerUID string    `json:"ownerUid"`
}

func (m TripFeedMessage) Topics() []string {
	return []string{OwnerTopic(m.OwnerUID), TripTopic(m.TripID)}
}

// OwnerTopic is the subscription topic carrying every change to the
// owner's trips.
func OwnerTopic(ownerUID string) string {
	return "owner/" + ownerUID
}

// TripTopic is the subscription topic carrying changes to one trip.
func TripTopic(tripID uuid.UUID) string {
	return "trip/" + tripID.String()
}
