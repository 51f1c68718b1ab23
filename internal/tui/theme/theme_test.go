package theme

import (
	"testing"

	"github.com/theirongolddev/adrec/internal/model"
)

func TestByNameFallsBackToDefault(t *testing.T) {
	if got := ByName("no-such-theme"); got.Name != FlexokiDark.Name {
		t.Fatalf("ByName(unknown) = %q, want %q", got.Name, FlexokiDark.Name)
	}
	for _, name := range Names() {
		if !Valid(name) {
			t.Fatalf("Valid(%q) = false", name)
		}
	}
	if Valid("") {
		t.Fatal("empty theme name reported valid")
	}
}

func TestForRecommendation(t *testing.T) {
	th := FlexokiDark
	if got := th.ForRecommendation(model.RecPause); got != th.Red {
		t.Fatalf("PAUSE color = %v, want red", got)
	}
	if got := th.ForRecommendation(model.Recommendation("SOMETHING_NEW")); got != th.TextMuted {
		t.Fatalf("unknown recommendation color = %v, want muted", got)
	}
}

func TestForAmount(t *testing.T) {
	th := FlexokiDark
	cases := []struct {
		v    float64
		want string
	}{
		{-1, string(th.Red)},
		{0, string(th.TextMuted)},
		{12.5, string(th.GreenBright)},
	}
	for _, c := range cases {
		if got := th.ForAmount(c.v); string(got) != c.want {
			t.Errorf("ForAmount(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}
