// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

// CostUpdateMsg reports a session cost parsed from streamed output.
// Delivery is fire-and-forget; the footer is the usual consumer.
type CostUpdateMsg struct {
	Cost float64
}
