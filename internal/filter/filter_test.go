package filter

import (
	"testing"

	"github.com/Digigit24/celiyo-new-sub001/internal/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(summaries []message.Summary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.ID
	}
	return out
}

func TestApplyTabs(t *testing.T) {
	summaries := []message.Summary{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}

	assert.Equal(t, []string{"2", "4"}, ids(Apply(summaries, TabMine, "")))
	assert.Equal(t, []string{"1", "3"}, ids(Apply(summaries, TabUnassigned, "")))
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(Apply(summaries, TabAll, "")))
}

func TestApplyNonNumericIDsAreUnassigned(t *testing.T) {
	summaries := []message.Summary{{ID: "visitor-a"}, {ID: "10"}}

	assert.Equal(t, []string{"10"}, ids(Apply(summaries, TabMine, "")))
	assert.Equal(t, []string{"visitor-a"}, ids(Apply(summaries, TabUnassigned, "")))
}

func TestApplySearch(t *testing.T) {
	summaries := []message.Summary{
		{ID: "1", Name: "Alice", LastMessage: "See you soon"},
		{ID: "2", Name: "Bob", LastMessage: "Lower back pain"},
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"back", []string{"2"}},
		{"ALICE", []string{"1"}},
		{"  ", []string{"1", "2"}},
		{"o", []string{"1", "2"}},
		{"nobody", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(summaries, TabAll, tt.search)))
		})
	}
}

func TestApplyComposesTabAndSearch(t *testing.T) {
	summaries := []message.Summary{
		{ID: "1", Name: "Alice"},
		{ID: "2", Name: "Alina"},
		{ID: "3", Name: "Bob"},
	}
	assert.Equal(t, []string{"2"}, ids(Apply(summaries, TabMine, "ali")))
	assert.Equal(t, []string{"1"}, ids(Apply(summaries, TabUnassigned, "ali")))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	summaries := []message.Summary{{ID: "1"}, {ID: "2"}}
	_ = Apply(summaries, TabMine, "")
	assert.Equal(t, []string{"1", "2"}, ids(summaries))
}

func TestParseTab(t *testing.T) {
	tab, err := ParseTab("")
	require.NoError(t, err)
	assert.Equal(t, TabAll, tab)

	tab, err = ParseTab(" Mine ")
	require.NoError(t, err)
	assert.Equal(t, TabMine, tab)

	_, err = ParseTab("archived")
	assert.Error(t, err)
}
