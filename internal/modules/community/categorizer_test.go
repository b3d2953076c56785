package community

import (
	"testing"

	"github.com/crmdata/vertical-affinity/internal/domain"
)

func TestCategorize(t *testing.T) {
	c := NewDefaultCategorizer()

	tests := []struct {
		name string
		want domain.Vertical
	}{
		{"Tuesday Run Club", domain.VerticalRunning},
		{"10K Tempo Session", domain.VerticalRunning},
		{"Half Marathon Prep", domain.VerticalRunning},
		{"Trail Hike: Sunrise Summit", domain.VerticalOutdoor},
		{"Mountain Weekend", domain.VerticalOutdoor},
		{"Strength Training Basics", domain.VerticalTraining},
		{"HYROX Workshop", domain.VerticalTraining},
		{"Mobility & Recovery Class", domain.VerticalTraining},
		{"Tennis Social Doubles", domain.VerticalTennis},
		{"Court Night", domain.VerticalTennis},
		{"Community Meetup", domain.VerticalAllDay},
		{"", domain.VerticalAllDay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Categorize(tt.name); got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestCategorizeIsCaseInsensitive(t *testing.T) {
	c := NewDefaultCategorizer()
	if got := c.Categorize("TEMPO RUN"); got != domain.VerticalRunning {
		t.Errorf("Categorize(TEMPO RUN) = %q, want running", got)
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	// Names mixing running and training terms classify as running because
	// the running rule is evaluated first.
	c := NewDefaultCategorizer()
	if got := c.Categorize("Interval Training"); got != domain.VerticalRunning {
		t.Errorf("Categorize(Interval Training) = %q, want running", got)
	}
}

func TestCategorizeCustomRulesAndFallback(t *testing.T) {
	c := NewCategorizer([]Rule{
		{Vertical: domain.VerticalTennis, Keywords: []string{"padel"}},
	}, domain.VerticalOutdoor)

	if got := c.Categorize("Padel Night"); got != domain.VerticalTennis {
		t.Errorf("got %q, want tennis", got)
	}
	if got := c.Categorize("Anything Else"); got != domain.VerticalOutdoor {
		t.Errorf("fallback = %q, want outdoor", got)
	}
}
