package assessment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_Labels(t *testing.T) {
	four := Options{A: "a", B: "b", C: "c", D: "d"}
	assert.Equal(t, []Label{LabelA, LabelB, LabelC, LabelD}, four.Labels())

	five := Options{A: "a", B: "b", C: "c", D: "d", E: "e"}
	assert.Equal(t, AllLabels, five.Labels())

	_, ok := four.Get(LabelE)
	assert.False(t, ok)
	text, ok := five.Get(LabelE)
	assert.True(t, ok)
	assert.Equal(t, "e", text)
}

func TestOptions_OmitsAbsentE(t *testing.T) {
	data, err := json.Marshal(Options{A: "a", B: "b", C: "c", D: "d"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"A":"a","B":"b","C":"c","D":"d"}`, string(data))
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in   string
		want Label
		ok   bool
	}{
		{"A", LabelA, true},
		{" e ", LabelE, true},
		{"c", LabelC, true},
		{"F", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseLabel(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLabel(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Social Interactions")
	require.NoError(t, err)
	assert.Equal(t, CategoryInteractions, c)

	c, err = ParseCategory("dailyroutine")
	require.NoError(t, err)
	assert.Equal(t, CategoryDailyRoutine, c)

	_, err = ParseCategory("Astrology")
	assert.Error(t, err)
}

func TestParseVoice(t *testing.T) {
	v, err := ParseVoice("")
	require.NoError(t, err)
	assert.Equal(t, VoicePuck, v)

	v, err = ParseVoice("kore")
	require.NoError(t, err)
	assert.Equal(t, VoiceKore, v)

	_, err = ParseVoice("Alloy")
	assert.Error(t, err)
}

func TestUserProfile_Age(t *testing.T) {
	p := UserProfile{BirthDate: "1990-06-15"}
	assert.Equal(t, 35, p.Age(time.Date(2026, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 36, p.Age(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, UserProfile{BirthDate: "garbage"}.Age(time.Now()))
}

func TestSeedQuestions(t *testing.T) {
	seed := SeedQuestions()
	require.Len(t, seed, 7)

	ids := make(map[string]bool)
	for _, q := range seed {
		assert.False(t, ids[q.ID], "duplicate id %s", q.ID)
		ids[q.ID] = true
		assert.True(t, q.Category.Valid(), "question %s has unknown category", q.ID)
		assert.NoError(t, ValidateQuestion(q), "seed question %s", q.ID)
	}

	// Callers get their own copy.
	seed[0].Text = "changed"
	assert.NotEqual(t, "changed", SeedQuestions()[0].Text)
}
