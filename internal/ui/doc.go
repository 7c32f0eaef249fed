// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI reviews contacts flagged for deletion before any destructive action
// is taken:
//  1. [ModeSelectView] : Choose how to handle the batch (review each, defer, archive, or delete all)
//  2. [ReviewView] : Step through flagged contacts one at a time
//  3. [SummaryView] : Recap the chosen dispositions
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. [TUIDecisionProvider] bridges the TUI to the sync engine: it runs
// one program per batch, collects per-contact decisions up front, and answers
// the engine's queries from that cache.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, a/d/i, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
