package theme

import (
	"testing"

	"github.com/theirongolddev/tripbudget/internal/model"
)

func TestByNameDefaults(t *testing.T) {
	if got := ByName("tokyo-night").Name; got != "tokyo-night" {
		t.Errorf("ByName(tokyo-night) = %s", got)
	}
	if got := ByName("nope").Name; got != FlexokiDark.Name {
		t.Errorf("ByName(nope) = %s, want default", got)
	}
}

func TestForStatus(t *testing.T) {
	th := FlexokiDark
	if th.ForStatus(model.StatusComfortable) != th.Green {
		t.Error("comfortable should be green")
	}
	if th.ForStatus(model.StatusOverBudget) != th.Red {
		t.Error("over budget should be red")
	}
	if th.ForProgress(1.2) != th.Green || th.ForProgress(0.1) != th.Orange {
		t.Error("progress colors out of order")
	}
}
