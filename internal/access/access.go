// Package access holds the stateless ownership and role predicates that
// gate every mutating booking operation.  Callers must check them before
// touching storage and report a denial instead of ignoring it.
package access

import "github.com/iliyamo/advocate-booking/internal/model"

// CanManageBooking is true iff the account is the booking's client or advocate.
func CanManageBooking(acct model.Account, b model.Booking) bool {
	return b.HasParty(acct.ID)
}

// CanTransition is true iff the account is the booking's advocate and the
// target is one of the statuses an advocate may set.  Whether the edge is
// legal from the current status is checked separately by model.CanTransition.
func CanTransition(acct model.Account, b model.Booking, target model.BookingStatus) bool {
	if !acct.IsAdvocate() || acct.ID == 0 || acct.ID != b.AdvocateID {
		return false
	}
	switch target {
	case model.StatusAccepted, model.StatusRejected, model.StatusCompleted, model.StatusCancelled:
		return true
	}
	return false
}

// CanReview is true iff the account is the booking's client, the booking is
// completed and no review exists for it yet.
func CanReview(acct model.Account, b model.Booking, reviewed bool) bool {
	return IsReviewer(acct, b) && b.Status == model.StatusCompleted && !reviewed
}

// IsReviewer reports whether acct is the client who may review b.
func IsReviewer(acct model.Account, b model.Booking) bool {
	return acct.IsClient() && acct.ID != 0 && acct.ID == b.ClientID
}
