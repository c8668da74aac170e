// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for streampane.

# Color System (colors.go)

A small adaptive palette: Purple, Cyan, Emerald, Rose and Amber accents,
SurfaceDim/Overlay surfaces, and TextPrimary/TextSecondary/TextMuted text
colors. StatusIndicators give every task state an ASCII marker so status is
readable without color.

# Theme System (theme.go)

Theme records the terminal color profile via termenv and exposes the styles used
by the output pane (task separators, status lines), the log view scroll
indicator, and the footer (cost, spinner, key hints). Layout modes switch the
footer between narrow, medium and wide renderings.

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	sep := theme.Separator.Render("─── build ───")
*/
package styles
