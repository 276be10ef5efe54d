// Package accounts implements the authentication surface of a user-account
// subsystem: credential login, stateless re-authentication through signed
// bearer tokens, and a single-use, time-boxed password reset workflow.
//
// Tokens embed an identity snapshot instead of pointing at a server-side
// session store. On every authenticated request the Reconciler loads the
// authoritative user record, diffs it against the snapshot carried by the
// inbound token, and asks the TokenCodec to mint a replacement when the two
// disagree. The client always holds a token that is at most one request
// behind the store.
//
// Password reset tokens live on the user record itself. Redemption is a
// single atomic compare-and-swap against the store, so two racing
// redemptions of the same token produce exactly one success.
package accounts
