package tui

const compactHeightBreakpoint = 20

type uiLayout struct {
	Width  int
	Height int

	Compact bool

	HeaderHeight int
	TabsHeight   int
	FooterHeight int
	BodyHeight   int
}

func computeLayout(width, height int) uiLayout {
	if width < 40 {
		width = 40
	}
	if height < 12 {
		height = 12
	}

	layout := uiLayout{
		Width:        width,
		Height:       height,
		HeaderHeight: 3,
		TabsHeight:   1,
		FooterHeight: 3,
	}
	layout.Compact = height < compactHeightBreakpoint
	if layout.Compact {
		layout.HeaderHeight = 2
		layout.FooterHeight = 2
	}
	layout.BodyHeight = maxInt(4, height-layout.HeaderHeight-layout.TabsHeight-layout.FooterHeight)
	return layout
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func fallbackText(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
