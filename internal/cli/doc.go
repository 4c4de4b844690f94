// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the chatbot command line.
//
// Commands:
//
//	chatbot chat                          Interactive chat (the default)
//	chatbot ask <text>                    Send one message and print the reply
//	chatbot upload <files...>             Upload files into the chat context
//	chatbot settings [get|set|reset]      Show or change preferences
//	chatbot conversations [list|show|save|delete]
//	chatbot export --format md|json|html  Export a saved conversation
//	chatbot config [show|path|get|set]    Inspect or edit the config file
//	chatbot version                       Print version information
//
// chat, ask and upload build their dependencies from the loaded
// configuration through App, then drive a chat.Session. The interactive REPL is the
// session's presentation shell: it prints transcript changes, shows toasts
// and the busy spinner, and maps slash commands to session actions.
package cli
