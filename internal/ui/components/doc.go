// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the terminal widgets of the chat front end:
// toasts, the busy spinner, and transcript rendering.
package components
