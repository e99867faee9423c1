package icons

import (
	"testing"

	"github.com/dylan/swingtempo/swing"
)

func TestIconsFollowFontSetting(t *testing.T) {
	defer SetNerdFonts(false)

	SetNerdFonts(false)
	if got := ForQuality(swing.Good); got != "✓" {
		t.Errorf("unicode good = %q", got)
	}
	if got := ForPhase(swing.Complete); got != "●" {
		t.Errorf("unicode complete = %q", got)
	}

	SetNerdFonts(true)
	if got := ForQuality(swing.Off); got != "\uf00d" {
		t.Errorf("nerd off = %q", got)
	}
	if got := ForQuality(swing.Quality("bogus")); got != "\uf128" {
		t.Errorf("nerd unknown = %q", got)
	}
}
