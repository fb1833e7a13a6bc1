package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

var (
	IconBook     = "\U000F00BA" // 󰂺
	IconNote     = "\U000F0219" // 󰈙
	IconBookmark = "\U000F00C0" // 󰃀
	IconBroken   = "\uf127"     // chain broken
	IconImage    = "\U000F021F" // 󰈟
)
