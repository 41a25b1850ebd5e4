// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import "context"

// NoopNotification discards cleanup notifications. It is the default sink
// when no subscriber is configured.
type NoopNotification struct{}

var _ OperationalStoreNotification = (*NoopNotification)(nil)

// PersistedGrantsRemoved does nothing.
func (*NoopNotification) PersistedGrantsRemoved(_ context.Context, _ []PersistedGrant) error {
	return nil
}

// DeviceCodesRemoved does nothing.
func (*NoopNotification) DeviceCodesRemoved(_ context.Context, _ []DeviceCode) error {
	return nil
}
