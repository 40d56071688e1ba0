// Package models defines the core domain models for the parents' association
// membership-fee tracker.
//
// # Collections
//
// The models mirror the persisted collections:
//   - AllowlistEntry: who may sign in, and with which Role
//   - MonthSummary: per-month counters maintained by the approval workflow
//   - QueueRequest: a pending expense request awaiting review
//   - Request: an approved, numbered expense request
//   - Counter: the per-year sequence used for variable symbols
//   - AuditEntry: append-only record of privileged actions
//
// # Conventions
//
// 1. Emails are always stored lowercased; the allow-list is keyed by them
// 2. Relationships use ID strings, never pointers
// 3. Amounts are CZK as decimal.Decimal, never float64
// 4. Timestamps are time.Time in UTC
package models
