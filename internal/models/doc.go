// Package models defines domain entities for the CMX contact reconciliation service.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing external registry data
//   - [Contact] : Copper CRM person with tag list
//   - [Subscriber] : Mailchimp list member with subscription status
//   - [MarkedContact] : Contact flagged for deletion with its triggering tag
//
// 2. Run bookkeeping: Types describing what a reconciliation run did
//   - [LifecycleState] : per-run classification derived from a contact's tags
//   - [SyncOperation] : immutable record of one attempted write
//   - [Decision] / [DecisionMode] : dispositions supplied for marked contacts
//
// Run history persistence lives in the repositories package; models here
// carry no storage concerns.
package models
