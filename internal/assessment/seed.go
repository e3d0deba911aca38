package assessment

// DefaultQueueSize is the number of questions asked in one session.
const DefaultQueueSize = 5

// SeedQuestions returns the built-in question set. A fresh slice is
// returned on every call.
func SeedQuestions() []Question {
	out := make([]Question, len(seedQuestions))
	copy(out, seedQuestions)
	return out
}

var seedQuestions = []Question{
	{
		ID:       "b-1",
		Category: CategoryBehavioral,
		Text:     "When faced with a sudden, unexpected problem, what is your immediate reaction?",
		Options: Options{
			A: "Panic slightly, then seek help immediately.",
			B: "Pause, analyze the situation logically, and form a plan.",
			C: "Act on instinct and try to fix it quickly.",
			D: "Ignore it hoping it goes away.",
			E: "Blame external factors before solving it.",
		},
	},
	{
		ID:       "b-2",
		Category: CategoryBehavioral,
		Text:     "You are waiting in a long line that isn't moving. You:",
		Options: Options{
			A: "Complain loudly to others in line.",
			B: "Check your phone and zone out.",
			C: "Find a staff member to ask for an update.",
			D: "Leave the line immediately.",
			E: "Strike up a conversation with the person next to you.",
		},
	},
	{
		ID:       "p-1",
		Category: CategoryPreferences,
		Text:     "Which genre of movie appeals to you most for a relaxed evening?",
		Options: Options{
			A: "Complex Psychological Thriller",
			B: "Light-hearted Romantic Comedy",
			C: "High-octane Action/Adventure",
			D: "Historical Documentary",
			E: "Fantasy or Sci-Fi Escapism",
		},
	},
	{
		ID:       "p-2",
		Category: CategoryPreferences,
		Text:     "Your ideal vacation spot is:",
		Options: Options{
			A: "A bustling city with museums and nightlife.",
			B: "A secluded cabin in the mountains.",
			C: "A luxury beach resort with full service.",
			D: "Backpacking through remote villages.",
			E: "A staycation at home with no obligations.",
		},
	},
	{
		ID:       "r-1",
		Category: CategoryDailyRoutine,
		Text:     "How do you handle your morning wake-up routine?",
		Options: Options{
			A: "Snooze 5 times, rush out the door.",
			B: "Wake up early, exercise, meditate.",
			C: "Wake up just in time, grab coffee, go.",
			D: "Slow start, reading news in bed for an hour.",
			E: "It varies wildly every day.",
		},
	},
	{
		ID:       "w-1",
		Category: CategoryProfession,
		Text:     "During a heated team meeting, you differ with the boss. You:",
		Options: Options{
			A: "Stay silent to avoid conflict.",
			B: "Respectfully voice your disagreement with data.",
			C: "Argue passionately for your point of view.",
			D: "Discuss it privately afterwards.",
			E: "Agree outwardly but do it your way anyway.",
		},
	},
	{
		ID:       "i-1",
		Category: CategoryInteractions,
		Text:     "A close friend cancels plans last minute. You feel:",
		Options: Options{
			A: "Relieved, now I have me-time.",
			B: "Annoyed and disrespected.",
			C: "Worried something is wrong with them.",
			D: "Indifferent, I'll find something else to do.",
			E: "Hurt, wondering if they don't like me.",
		},
	},
}
