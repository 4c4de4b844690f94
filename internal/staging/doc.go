// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package staging holds files the user attached but has not sent yet.
//
// Files are checked against an allow-list when staged, uploaded one at a
// time in staging order when the user submits, and removed from the queue a
// short while after the batch finishes so their status stays visible.
package staging
