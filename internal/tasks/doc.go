// package tasks implements the bidirectional contact reconciliation engine.
//
// The core abstraction is [SyncEngine], which orchestrates fetching,
// classification, diffing, and writes across both registries. A run proceeds
// in fixed phases: enumerate Copper, enumerate Mailchimp, classify contacts
// by lifecycle tags, push active contacts into Mailchimp, create Copper
// records for members unknown to the CRM, then route contacts marked for
// deletion through a [DecisionProvider].
//
// Per-record failures are recorded as operations and never halt a run; only
// a failed enumeration aborts, returning the partial result accumulated so
// far. Progress is reported through channels via non-blocking sends so
// display layers can lag or disappear without stalling the engine.
package tasks
