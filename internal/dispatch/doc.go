// Package dispatch enforces the process-wide request budget for calls to
// the advertising platform.
//
// Every query or mutation routes through Call with an explicit Budget.
// After 3000 successful calls the next call blocks for one hour and resets
// the counter before proceeding. Failed calls are logged and swallowed so
// one bad request never aborts a batch, and they do not consume budget.
package dispatch
