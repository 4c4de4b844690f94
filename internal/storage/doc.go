// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage saves, lists, loads, and deletes conversations on the
// chat server.
//
// The server owns the records; this package only moves them. Every
// operation fails closed: a transport error, a non-2xx reply, or a reply
// with "success": false is returned to the caller unchanged in meaning,
// nothing is retried, and no local state is touched.
//
// # Usage
//
//	store := storage.NewClient(backendClient)
//	ack, err := store.Save(ctx, "", conv.Messages())
//	list, err := store.List(ctx)
//	fmt.Print(storage.FormatList(list))
package storage
