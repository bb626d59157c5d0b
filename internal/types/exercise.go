package types

import "strings"

// ExerciseType identifies the kind of exercise presented to the user.
// ChooseSentence and ChooseAccent are closed-choice types: the correct
// options are part of the exercise data, so correctness is decided
// structurally without an LLM call.
type ExerciseType string

const (
	FillInTheBlank     ExerciseType = "fill_in_the_blank"
	ChooseSentence     ExerciseType = "choose_sentence"
	ChooseAccent       ExerciseType = "choose_accent"
	StoryComprehension ExerciseType = "story_comprehension"
)

// ClosedChoice reports whether the type carries its own correct-options list.
func (t ExerciseType) ClosedChoice() bool {
	return t == ChooseSentence || t == ChooseAccent
}

// LanguageLevel is a CEFR level, A1 (lowest) through C2 (highest).
type LanguageLevel int

const (
	A1 LanguageLevel = iota
	A2
	B1
	B2
	C1
	C2
)

var levelNames = [...]string{"A1", "A2", "B1", "B2", "C1", "C2"}

func (l LanguageLevel) String() string {
	if l < A1 || l > C2 {
		return "A1"
	}
	return levelNames[l]
}

// ParseLevel maps a CEFR code to a level; unknown codes fall back to A1.
func ParseLevel(s string) LanguageLevel {
	for i, n := range levelNames {
		if strings.EqualFold(s, n) {
			return LanguageLevel(i)
		}
	}
	return A1
}

// Clamp bounds the level to the valid [A1, C2] range.
func (l LanguageLevel) Clamp() LanguageLevel {
	if l < A1 {
		return A1
	}
	if l > C2 {
		return C2
	}
	return l
}

type Topic string

const (
	TopicGeneral       Topic = "general"
	TopicShopping      Topic = "shopping"
	TopicTravel        Topic = "travel"
	TopicFood          Topic = "food"
	TopicSports        Topic = "sports"
	TopicWeather       Topic = "weather"
	TopicWork          Topic = "work"
	TopicHealth        Topic = "health"
	TopicEmergencies   Topic = "emergencies"
	TopicRelationships Topic = "relationships"
	TopicTech          Topic = "tech"
	TopicEducation     Topic = "education"
	TopicEntertainment Topic = "entertainment"
	TopicMoney         Topic = "money"
	TopicHome          Topic = "home"
	TopicTransport     Topic = "transport"
	TopicRestaurant    Topic = "restaurant"
	TopicFamily        Topic = "family"
	TopicNature        Topic = "nature"
	TopicCulture       Topic = "culture"
)

// AllTopics is the pool the orchestrator picks from when the profile has no
// topic preference.
var AllTopics = []Topic{
	TopicGeneral, TopicShopping, TopicTravel, TopicFood, TopicSports,
	TopicWeather, TopicWork, TopicHealth, TopicEmergencies, TopicRelationships,
	TopicTech, TopicEducation, TopicEntertainment, TopicMoney, TopicHome,
	TopicTransport, TopicRestaurant, TopicFamily, TopicNature, TopicCulture,
}

// Exercise is one task shown to the user. Data carries the type-specific
// payload (options, blanks, story text) as decoded JSON.
type Exercise struct {
	ExerciseID     int64          `json:"exercise_id" dynamodbav:"exercise_id"`
	Type           ExerciseType   `json:"exercise_type" dynamodbav:"exercise_type"`
	Topic          Topic          `json:"topic" dynamodbav:"topic"`
	LanguageLevel  LanguageLevel  `json:"language_level" dynamodbav:"language_level"`
	TargetLanguage string         `json:"target_language" dynamodbav:"target_language"`
	Text           string         `json:"exercise_text" dynamodbav:"exercise_text"`
	Data           map[string]any `json:"data,omitempty" dynamodbav:"data"`
}

// CorrectOptions returns the correct-options list for closed-choice types.
// Empty for open types or malformed data.
func (e Exercise) CorrectOptions() []string {
	raw, ok := e.Data["correct_options"]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// ExerciseCriteria narrows exercise selection for ExerciseSource lookups.
type ExerciseCriteria struct {
	UserID         int64
	TargetLanguage string
	UserLanguage   string
	Type           ExerciseType
	Topic          Topic
	LanguageLevel  LanguageLevel
}
