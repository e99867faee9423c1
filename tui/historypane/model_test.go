package historypane

import (
	"strings"
	"testing"
	"time"

	"github.com/dylan/swingtempo/history"
	"github.com/dylan/swingtempo/swing"
)

func TestRenderHistory(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	res, _ := swing.Compute(900*time.Millisecond, 300*time.Millisecond)
	items := []history.Item{history.NewItem(res, now.Add(-3*time.Minute))}

	out := renderHistory(items, now)
	for _, want := range []string{"3.0:1", "good", "0.90s", "3 minutes ago", "Summary"} {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}

	if !strings.Contains(renderHistory(nil, now), "No swings") {
		t.Error("empty history not rendered")
	}
}
