// Package texts holds the localized user-facing message catalog.
package texts

import "fmt"

type MessageKey string

const (
	LimitReached          MessageKey = "limit_reached"
	CongratulationsWait   MessageKey = "congratulations_and_wait"
	CongratulationsStreak MessageKey = "congratulations_streak"
	PraiseAndNextSet      MessageKey = "praise_and_next_set"
	ErrorGettingExercise  MessageKey = "error_getting_exercise"
	ChoiceCorrect         MessageKey = "choice_correct"
	ChoiceIncorrect       MessageKey = "choice_incorrect"
)

const fallbackLanguage = "en"

// catalog maps language -> key -> fmt template. Keep placeholders positional:
// translators reorder sentences, not verbs.
var catalog = map[string]map[MessageKey]string{
	"en": {
		LimitReached:          "You have done a lot today! Next session opens in %s. Come back then, or skip the wait below.",
		CongratulationsWait:   "Congratulations, you finished all %d exercises of this session! Take a break, the next session opens in %s.",
		CongratulationsStreak: "Congratulations, you finished all %d exercises of this session, that's %d days in a row! Next session opens in %s.",
		PraiseAndNextSet:      "Great job! Set complete. Ready for the next one?",
		ErrorGettingExercise:  "Sorry, something went wrong while picking your next exercise. Please try again.",
		ChoiceCorrect:         "Correct!",
		ChoiceIncorrect:       "Not quite. Correct options: %s",
	},
	"ru": {
		LimitReached:          "Вы сегодня хорошо позанимались! Следующая сессия откроется через %s. Возвращайтесь позже или пропустите ожидание ниже.",
		CongratulationsWait:   "Поздравляем, вы выполнили все %d упражнений этой сессии! Отдохните, следующая сессия откроется через %s.",
		CongratulationsStreak: "Поздравляем, вы выполнили все %d упражнений этой сессии, уже %d дней подряд! Следующая сессия откроется через %s.",
		PraiseAndNextSet:      "Отличная работа! Подход завершён. Готовы к следующему?",
		ErrorGettingExercise:  "К сожалению, не получилось подобрать следующее упражнение. Попробуйте ещё раз.",
		ChoiceCorrect:         "Верно!",
		ChoiceIncorrect:       "Не совсем. Правильные варианты: %s",
	},
}

// Get renders the message for the language, falling back to English for an
// unknown language or a missing key.
func Get(key MessageKey, language string, args ...any) string {
	m, ok := catalog[language]
	if !ok {
		m = catalog[fallbackLanguage]
	}
	tmpl, ok := m[key]
	if !ok {
		tmpl, ok = catalog[fallbackLanguage][key]
		if !ok {
			return string(key)
		}
	}
	return fmt.Sprintf(tmpl, args...)
}
