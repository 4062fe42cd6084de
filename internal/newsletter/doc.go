// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package newsletter provides subscriber management and issue
// delivery.
//
// # Domain Types
//
//   - SubscriberName: display name, validated on entry
//   - SubscriberEmail: validated email address
//   - Issue: a newsletter edition with text and HTML bodies
//
// # Services
//
//   - SubscriptionService: records new subscribers
//   - Publisher: delivers an issue to every confirmed subscriber
//
// Validation happens at the boundary: a StoredSubscriber read back
// from the database is re-parsed before use, and records that no
// longer pass are skipped rather than aborting a whole delivery run.
package newsletter
