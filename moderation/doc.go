// Moderation decision engine for user-submitted nail-design media.
//
// This package (`github.com/lacquer-social/vernis/moderation`) decides whether a submission is safe and topically relevant enough to enter the human review queue. It interprets safe-search ordinals and detected content labels returned by an external vision service, combines them with a sliding-window spam heuristic over the submitter's recent activity, and tracks the estimated monetary cost of each evaluation through the cost ledger. The engine performs no image processing itself; it only scores what the vision service reports.
//
// See `cmd/topcoat` for the daemon built on this package.
package moderation
