// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package mocks provides hand-written testify mocks for the auth
// package interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/inkpress/inkpress/internal/auth"
)

// MockCredentialStore is a mock implementation of auth.CredentialStore.
type MockCredentialStore struct {
	mock.Mock
}

// NewMockCredentialStore creates a mock wired to the test lifecycle:
// expectations are asserted automatically at cleanup.
func NewMockCredentialStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCredentialStore {
	m := &MockCredentialStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCredentialStore) Lookup(ctx context.Context, username string) (*auth.StoredCredential, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.StoredCredential), args.Error(1)
}

func (m *MockCredentialStore) GetUsername(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockCredentialStore) UpdateHash(ctx context.Context, userID uuid.UUID, newHash string) error {
	args := m.Called(ctx, userID, newHash)
	return args.Error(0)
}

var _ auth.CredentialStore = (*MockCredentialStore)(nil)
