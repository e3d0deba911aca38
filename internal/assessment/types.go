package assessment

import (
	"fmt"
	"strings"
	"time"
)

// Category groups questions by the area of life they probe.
type Category string

const (
	CategoryBehavioral   Category = "Behavioral"
	CategoryPreferences  Category = "Preferences"
	CategoryDailyRoutine Category = "DailyRoutine"
	CategoryProfession   Category = "Profession"
	CategoryInteractions Category = "Interactions"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryBehavioral,
	CategoryPreferences,
	CategoryDailyRoutine,
	CategoryProfession,
	CategoryInteractions,
}

var categoryLabels = map[Category]string{
	CategoryBehavioral:   "Behavioral Characteristics",
	CategoryPreferences:  "Preferences (Food, Movies, etc.)",
	CategoryDailyRoutine: "Daily Routine",
	CategoryProfession:   "Profession & Work Behavior",
	CategoryInteractions: "Social Interactions",
}

// Label returns the human-readable category name used in prompts and views.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory accepts either the short name or the display label,
// case-insensitively.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(s)
	for _, c := range AllCategories {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.Label()) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Label identifies an answer option.
type Label string

const (
	LabelA Label = "A"
	LabelB Label = "B"
	LabelC Label = "C"
	LabelD Label = "D"
	LabelE Label = "E"
)

// AllLabels lists the option labels in order.
var AllLabels = []Label{LabelA, LabelB, LabelC, LabelD, LabelE}

// ParseLabel normalizes s ("a", " B ") to a Label.
func ParseLabel(s string) (Label, bool) {
	l := Label(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllLabels {
		if l == known {
			return l, true
		}
	}
	return "", false
}

// Options holds the answer choices of a question. A through D are always
// present; an empty E means the question has four options.
type Options struct {
	A string `json:"A" validate:"required,max=200"`
	B string `json:"B" validate:"required,max=200"`
	C string `json:"C" validate:"required,max=200"`
	D string `json:"D" validate:"required,max=200"`
	E string `json:"E,omitempty" validate:"max=200"`
}

// Get returns the text for label and whether that option is present.
func (o Options) Get(l Label) (string, bool) {
	var s string
	switch l {
	case LabelA:
		s = o.A
	case LabelB:
		s = o.B
	case LabelC:
		s = o.C
	case LabelD:
		s = o.D
	case LabelE:
		s = o.E
	}
	return s, s != ""
}

// Labels returns the labels of the present options in order.
func (o Options) Labels() []Label {
	out := make([]Label, 0, len(AllLabels))
	for _, l := range AllLabels {
		if _, ok := o.Get(l); ok {
			out = append(out, l)
		}
	}
	return out
}

// Question is a single multiple-choice prompt. Questions are immutable
// once created.
type Question struct {
	ID       string   `json:"id"`
	Category Category `json:"category" validate:"required,category"`
	Text     string   `json:"text" validate:"required,max=500"`
	Options  Options  `json:"options"`
}

// Answer records the option chosen for a question.
type Answer struct {
	QuestionID     string `json:"questionId"`
	SelectedOption Label  `json:"selectedOption"`
	Timestamp      int64  `json:"timestamp"` // unix milliseconds
}

// Gender is the self-reported gender of the user.
type Gender string

const (
	GenderMale           Gender = "Male"
	GenderFemale         Gender = "Female"
	GenderNonBinary      Gender = "Non-Binary"
	GenderPreferNotToSay Gender = "Prefer Not to Say"
)

// AllGenders lists the accepted gender values.
var AllGenders = []Gender{GenderMale, GenderFemale, GenderNonBinary, GenderPreferNotToSay}

// Photo is an optional portrait supplied during onboarding.
type Photo struct {
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// BirthDateLayout is the accepted format of UserProfile.BirthDate.
const BirthDateLayout = "2006-01-02"

// UserProfile is collected once at onboarding and never changes for the
// lifetime of a session.
type UserProfile struct {
	Name        string `json:"name" validate:"required,max=120"`
	BirthDate   string `json:"birthDate" validate:"required,datetime=2006-01-02,notfuture"`
	Gender      Gender `json:"gender" validate:"required,gender"`
	Nationality string `json:"nationality" validate:"required,max=80"`
	Photo       *Photo `json:"photo,omitempty"`
}

// Age returns the user's age in whole years at now. Returns 0 if the
// birth date cannot be parsed.
func (p UserProfile) Age(now time.Time) int {
	born, err := time.Parse(BirthDateLayout, p.BirthDate)
	if err != nil {
		return 0
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// TraitScore is one scored personality dimension of a report.
type TraitScore struct {
	Trait       string  `json:"trait"`
	Score       float64 `json:"score"` // 0-100
	Description string  `json:"description"`
}

// Report is the synthesized personality analysis.
type Report struct {
	Summary                string       `json:"summary"`
	Traits                 []TraitScore `json:"traits"`
	PsychologicalArchetype string       `json:"psychologicalArchetype"`
	Strengths              []string     `json:"strengths"`
	Weaknesses             []string     `json:"weaknesses"`
	RelationshipStyle      string       `json:"relationshipStyle"`
	CareerFit              string       `json:"careerFit"`
	VisualCorrelation      string       `json:"visualCorrelation"`
}

// Voice names a prebuilt speech synthesis voice.
type Voice string

const (
	VoicePuck   Voice = "Puck"
	VoiceCharon Voice = "Charon"
	VoiceKore   Voice = "Kore"
	VoiceFenrir Voice = "Fenrir"
	VoiceZephyr Voice = "Zephyr"
)

// DefaultVoice is used when the caller does not choose one.
const DefaultVoice = VoicePuck

// AllVoices lists the available voices.
var AllVoices = []Voice{VoicePuck, VoiceCharon, VoiceKore, VoiceFenrir, VoiceZephyr}

// ParseVoice matches s against the known voices case-insensitively.
// An empty string yields DefaultVoice.
func ParseVoice(s string) (Voice, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultVoice, nil
	}
	for _, v := range AllVoices {
		if strings.EqualFold(s, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown voice %q", s)
}
