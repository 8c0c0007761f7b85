package db

import (
	"errors"
	"fmt"
)

// ErrTopicClaimed is returned when another run already inserted the same
// primary keyword. The uniqueness constraint is the only cross-run guard.
var ErrTopicClaimed = errors.New("topic already claimed")

// TopicClaimedError names the keyword that lost the race.
type TopicClaimedError struct {
	Keyword string
}

func (e *TopicClaimedError) Error() string {
	return fmt.Sprintf("Topic already claimed: %s", e.Keyword)
}

// Is lets errors.Is(err, ErrTopicClaimed) match.
func (e *TopicClaimedError) Is(target error) bool {
	return target == ErrTopicClaimed
}
