package icons

import "github.com/dylan/swingtempo/swing"

var useNerdFonts bool

// SetNerdFonts enables or disables Nerd Font icons.
func SetNerdFonts(enabled bool) { useNerdFonts = enabled }

// --- Unicode fallback icons ---

var phaseIcons = map[swing.Phase]string{
	swing.Ready:     "○",
	swing.Backswing: "◐",
	swing.Downswing: "◑",
	swing.Complete:  "●",
}

var qualityIcons = map[swing.Quality]string{
	swing.Good:  "✓",
	swing.Close: "~",
	swing.Off:   "✗",
}

// --- Nerd Font v3 icons ---

var nerdPhaseIcons = map[swing.Phase]string{
	swing.Ready:     "\uf10c", // circle-o
	swing.Backswing: "\uf0e2", // undo
	swing.Downswing: "\uf01e", // repeat
	swing.Complete:  "\uf058", // check-circle
}

var nerdQualityIcons = map[swing.Quality]string{
	swing.Good:  "\uf00c", // check
	swing.Close: "\uf071", // warning
	swing.Off:   "\uf00d", // times
}

// ForPhase returns an icon for a swing phase.
func ForPhase(p swing.Phase) string {
	if useNerdFonts {
		if icon, ok := nerdPhaseIcons[p]; ok {
			return icon
		}
		return "\uf128" // question
	}
	if icon, ok := phaseIcons[p]; ok {
		return icon
	}
	return "?"
}

// ForQuality returns an icon for a ratio grade.
func ForQuality(q swing.Quality) string {
	if useNerdFonts {
		if icon, ok := nerdQualityIcons[q]; ok {
			return icon
		}
		return "\uf128" // question
	}
	if icon, ok := qualityIcons[q]; ok {
		return icon
	}
	return "?"
}

// Camera returns the live-feed indicator.
func Camera() string {
	if useNerdFonts {
		return "\uf030" // camera
	}
	return "●"
}
