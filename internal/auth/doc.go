// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package auth implements credential verification and session
// authorization for inkpress.
//
// # Domain Types
//
// Credentials carry a username and a Secret-wrapped password for a
// single authentication attempt; they are never persisted and never
// appear in logs. StoredCredential is the durable record read from
// the CredentialStore. VerifiedIdentity is the sole output of a
// successful validation.
//
// # Services
//
// Service types coordinate domain operations:
//   - CredentialValidator - turns Credentials into a VerifiedIdentity or a
//     classified failure, with timing equalization for unknown users
//   - Guard - session-based identity: Current, Require, Establish
//     (with handle rotation), Terminate
//   - PasswordService - the password change workflow
//
// Services are created with New* constructors that validate their
// dependencies.
package auth
