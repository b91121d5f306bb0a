package auction

import "time"

// ResolveStatus derives an auction's lifecycle phase from its timing.
// Pure: no side effects, safe to call any number of times. Because the
// result flips with the wall clock, it must be re-evaluated immediately
// before every bid validity check.
//
//	cancelled            -> CANCELLED (terminal)
//	no schedule yet      -> DRAFT
//	now <  startsAt      -> SCHEDULED
//	startsAt <= now < endsAt -> ACTIVE
//	now >= endsAt        -> ENDED (terminal for bidding)
func ResolveStatus(startsAt, endsAt time.Time, now time.Time, cancelled bool) string {
	switch {
	case cancelled:
		return StatusCancelled
	case startsAt.IsZero() || endsAt.IsZero():
		return StatusDraft
	case now.Before(startsAt):
		return StatusScheduled
	case now.Before(endsAt):
		return StatusActive
	default:
		return StatusEnded
	}
}
