// Package session is the analysis session orchestrator.
//
// An Orchestrator reads the current selection, uploads that slice of the
// current source to the backend and keeps the session id the analyze call
// returns, so later chat messages land in the same conversation:
//
//	o := session.New(api.New(hc), model)
//	o.SetSource(src)
//	res, err := o.StartAnalysis(ctx, params)
//	reply, err := o.ContinueChat(ctx, "what key is this in?")
//
// Requests without a selection or a source fail with InvalidSelection, and
// chat before any analysis fails with NoActiveSession. Neither reaches the
// network.
package session
