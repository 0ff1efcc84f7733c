package category

import (
	"context"
	"testing"

	"github.com/amishk599/acadjobs/internal/model"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		want        model.Category
	}{
		{"postdoc scenario", "Postdoctoral Researcher", "This role requires a PhD. The lab focuses on robotics. Funding is available.", model.Research},
		{"research precedes teaching", "Postdoc and Lecturer", "", model.Research},
		{"teaching precedes phd", "Lecturer", "Applicants must hold a PhD.", model.Teaching},
		{"phd precedes fellowship", "Doctoral Fellowship", "", model.PhD},
		{"fellowship", "Visiting Fellow", "", model.Fellowship},
		{"internship", "Summer Internship", "", model.Internship},
		{"technical", "Data Analyst", "", model.Technical},
		{"administrative", "Finance Officer", "", model.Administrative},
		{"case insensitive", "SOFTWARE ENGINEER", "", model.Technical},
		{"keyword in description only", "Role", "you will join the faculty", model.Teaching},
		{"no match", "Groundskeeper", "Looking after the gardens.", model.General},
		{"empty input", "", "", model.General},
	}

	c := NewRuleClassifier(nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.Match(tc.title, tc.description); got != tc.want {
				t.Errorf("Match(%q, %q) = %s, want %s", tc.title, tc.description, got, tc.want)
			}
		})
	}
}

func TestClassify_AlwaysReturnsTaxonomyValue(t *testing.T) {
	c := NewRuleClassifier(nil)
	inputs := []string{"", "x", "research", "???", "Chief Officer of Research Teaching"}
	for _, in := range inputs {
		got := c.Classify(context.Background(), in, in)
		if !got.Valid() || got == model.Unclassified {
			t.Errorf("Classify(%q) = %q, not a taxonomy value", in, got)
		}
	}
}

func TestCustomRulesOrder(t *testing.T) {
	c := NewRuleClassifier([]Rule{
		{Category: model.Teaching, Keywords: []string{"lecturer"}},
		{Category: model.Research, Keywords: []string{"postdoc"}},
	})
	if got := c.Match("postdoc lecturer", ""); got != model.Teaching {
		t.Errorf("Match = %s, want Teaching (first rule wins)", got)
	}
}

func TestParseAILabel(t *testing.T) {
	tests := []struct {
		reply  string
		want   model.Category
		wantOK bool
	}{
		{"Research", model.Research, true},
		{"  PhD\n", model.PhD, true},
		{"Fellowship", model.Fellowship, true},
		{"General", "", false},
		{"Unclassified", "", false},
		{"research", "", false},
		{"Research.", "", false},
		{"The category is Research", "", false},
		{"", "", false},
	}
	for _, tc := range tests {
		got, ok := ParseAILabel(tc.reply)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ParseAILabel(%q) = (%q, %v), want (%q, %v)", tc.reply, got, ok, tc.want, tc.wantOK)
		}
	}
}
