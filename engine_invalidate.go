package sessauth

import "context"

// InvalidateUser marks every live session of the user as stale, forcing each
// one to reload the account from the credential store on its next
// resolution. Returns the number of sessions marked.
//
// This is soft revocation: sessions are not destroyed, their cached
// UpdatedAt marker is zeroed so the next Resolve on that token takes the
// stale path and observes any account change -- a fresh ban, a disabled
// flag, revoked permissions. A revoked session therefore remains usable with
// stale data until its next request, bounded by how soon the client comes
// back. Callers needing the change to bite immediately should not weaken
// this into an expectation of instant revocation; that would be a different
// consistency contract.
func (e *Engine) InvalidateUser(ctx context.Context, userID int64) (int, error) {
	if e == nil {
		return 0, ErrEngineNotReady
	}

	rows, err := e.tokens.FindActiveByUser(ctx, userID, e.now())
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, row := range rows {
		ok, err := e.sessions.MarkStale(ctx, row.Value)
		if err != nil {
			return marked, err
		}
		if ok {
			marked++
		}
	}

	return marked, nil
}
