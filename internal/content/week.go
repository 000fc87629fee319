// Package content carries the built-in weekly lesson and quiz definitions.
// Lesson keys are stable and never renumbered; titles, descriptions and media
// rotate weekly. The sync step reconciles this data into Postgres.
package content

// LessonDef is one weekly lesson as authored.
type LessonDef struct {
	Key         string
	Title       string
	Description string
	ContentType string
	MediaPath   string
	Content     string
	Duration    string
	OrderIndex  int
}

// OptionDef is one selectable answer as authored.
type OptionDef struct {
	Key  string
	Text string
}

// QuestionDef is one authored question; Correct names the right option key.
type QuestionDef struct {
	Key     string
	Text    string
	Options []OptionDef
	Correct string
}

// QuizDef is the authored quiz for a lesson.
type QuizDef struct {
	Title        string
	PassingScore int
	Questions    []QuestionDef
}

// Week bundles the current rotation of lessons and quizzes.
type Week struct {
	Number  int
	Theme   string
	Lessons []LessonDef
	Quizzes map[string]QuizDef
}

// Current returns the active weekly content. Update this weekly; keys stay fixed.
func Current() Week {
	return Week{
		Number: 1,
		Theme:  "Introduction to the OPN Ecosystem",
		Lessons: []LessonDef{
			{
				Key:         "lesson-1",
				Title:       "Welcome to the Ecosystem",
				Description: "Understanding our mission and vision",
				ContentType: "video",
				MediaPath:   "/videos/week1/intro.mp4",
				Content: "The ecosystem is designed to foster digital innovation through decentralization. " +
					"Our mission is an open, accessible platform where creators and users interact directly, " +
					"without intermediaries. Key principles: decentralization, accessibility, innovation and " +
					"community governance by token holders.",
				Duration:   "5 min",
				OrderIndex: 1,
			},
			{
				Key:         "lesson-2",
				Title:       "OPN Token Basics",
				Description: "Learn about our native token",
				ContentType: "text",
				Content: "OPN is the native utility and governance token. It pays transaction fees, secures the " +
					"network through staking, votes on protocol upgrades and unlocks premium features.",
				Duration:   "8 min",
				OrderIndex: 2,
			},
			{
				Key:         "lesson-3",
				Title:       "How Transactions Work",
				Description: "Deep dive into transaction processing",
				ContentType: "interactive",
				Content: "Transactions are validated by staked nodes and reach finality after a fixed number of " +
					"confirmations. Fees depend on network congestion and transaction complexity.",
				Duration:   "10 min",
				OrderIndex: 3,
			},
		},
		Quizzes: map[string]QuizDef{
			"lesson-1": {
				Title:        "Welcome to the Ecosystem",
				PassingScore: 70,
				Questions: []QuestionDef{
					{
						Key:  "q1",
						Text: "What is the primary mission of the ecosystem?",
						Options: []OptionDef{
							{Key: "a", Text: "To create a decentralized platform for digital innovation"},
							{Key: "b", Text: "To replace traditional banking systems"},
							{Key: "c", Text: "To mine cryptocurrency"},
							{Key: "d", Text: "To build social media platforms"},
						},
						Correct: "a",
					},
					{
						Key:  "q2",
						Text: "Which chain powers the ecosystem?",
						Options: []OptionDef{
							{Key: "a", Text: "Ethereum"},
							{Key: "b", Text: "OPN Chain"},
							{Key: "c", Text: "Bitcoin"},
							{Key: "d", Text: "Solana"},
						},
						Correct: "b",
					},
					{
						Key:  "q3",
						Text: "What is the native token of the ecosystem?",
						Options: []OptionDef{
							{Key: "a", Text: "IOP"},
							{Key: "b", Text: "OPN"},
							{Key: "c", Text: "REP"},
							{Key: "d", Text: "PULSE"},
						},
						Correct: "b",
					},
				},
			},
			"lesson-2": {
				Title:        "OPN Token Basics",
				PassingScore: 70,
				Questions: []QuestionDef{
					{
						Key:  "q1",
						Text: "What consensus mechanism does the chain use?",
						Options: []OptionDef{
							{Key: "a", Text: "Proof of Work"},
							{Key: "b", Text: "Proof of Stake"},
							{Key: "c", Text: "Proof of Authority"},
							{Key: "d", Text: "Delegated Proof of Stake"},
						},
						Correct: "b",
					},
					{
						Key:  "q2",
						Text: "Which of these is NOT a utility of the OPN token?",
						Options: []OptionDef{
							{Key: "a", Text: "Paying transaction fees"},
							{Key: "b", Text: "Staking for rewards"},
							{Key: "c", Text: "Governance voting"},
							{Key: "d", Text: "Off-chain identity storage"},
						},
						Correct: "d",
					},
					{
						Key:  "q3",
						Text: "What is the average transaction speed on the chain?",
						Options: []OptionDef{
							{Key: "a", Text: "1-2 seconds"},
							{Key: "b", Text: "3-5 seconds"},
							{Key: "c", Text: "10-15 seconds"},
							{Key: "d", Text: "30+ seconds"},
						},
						Correct: "b",
					},
				},
			},
			"lesson-3": {
				Title:        "How Transactions Work",
				PassingScore: 70,
				Questions: []QuestionDef{
					{
						Key:  "q1",
						Text: "What determines gas fees on the chain?",
						Options: []OptionDef{
							{Key: "a", Text: "Only the amount being sent"},
							{Key: "b", Text: "Network congestion and transaction complexity"},
							{Key: "c", Text: "The sender's account age"},
							{Key: "d", Text: "Random selection by validators"},
						},
						Correct: "b",
					},
					{
						Key:  "q2",
						Text: "How many confirmations are typically needed for finality?",
						Options: []OptionDef{
							{Key: "a", Text: "1 confirmation"},
							{Key: "b", Text: "3 confirmations"},
							{Key: "c", Text: "6 confirmations"},
							{Key: "d", Text: "12 confirmations"},
						},
						Correct: "c",
					},
					{
						Key:  "q3",
						Text: "What happens to a failed transaction?",
						Options: []OptionDef{
							{Key: "a", Text: "It is automatically retried"},
							{Key: "b", Text: "Gas fees are fully refunded"},
							{Key: "c", Text: "It is reverted but gas fees are consumed"},
							{Key: "d", Text: "It remains pending indefinitely"},
						},
						Correct: "c",
					},
				},
			},
		},
	}
}
