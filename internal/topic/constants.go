package topic

const (
	DefaultSubject = "General"
	DefaultTopic   = "General Topic"

	MinSubtopics = 3
	MaxSubtopics = 5

	MinDays       = 3
	MaxDays       = 7
	ModulesPerDay = 3
)
