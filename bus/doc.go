// Package bus carries request/response envelopes between the coordinator and
// the foreground agents embedded in host pages.
//
// Every call is tracked by a [PendingCall] that settles exactly once: with the
// handler's response, with a timeout once its deadline passes, or with the
// caller's context error. A response that arrives after its call settled is
// discarded.
//
// # Envelopes
//
// A [Message] travels as a flat JSON object: the action name next to the
// payload's own fields.
//
//	{"action":"solve","questionText":"What is 2+2?","mode":"qa"}
//
// Handlers answer with a [Response]:
//
//	{"success":true,"result":{"text":"A: 4","mode":"qa"}}
//	{"success":false,"error":"Request timed out. Please try again.","kind":"timeout"}
//
// # Recovery
//
// [Bus.SendWithRecovery] treats a missing or failing agent as something that
// can be fixed by injecting it again. It retries a bounded number of times,
// injecting and waiting a short settle delay between attempts. Timeouts are
// not retried.
//
// Once a target reports that its context was invalidated the bus refuses
// further sends to it, notifies the user once, and waits for [Bus.Reload].
package bus
