package flow

import (
	"fmt"
	"hash/fnv"
	"time"
)

var timeNow = time.Now

func SetTimeNowFn(f func() time.Time) {
	timeNow = f
}

func RestoreTimeNow() {
	timeNow = time.Now
}

// hashText generates a quick fixed-length hash of the answer text so cache
// keys stay short regardless of answer length.
func hashText(s string) string {
	h := fnv.New64a()
	// hash.Hash.Write never returns an error according to the interface contract
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("a%d", h.Sum64())
}

func attemptKey(userID, exerciseID int64, answerText string) string {
	return fmt.Sprintf("validate_attempt_%d_%d_%s", userID, exerciseID, hashText(answerText))
}

func validationKey(exerciseID int64, answerText string) string {
	return fmt.Sprintf("validation_%d_%s", exerciseID, hashText(answerText))
}

func translationKey(answerID int64, targetLanguage string) string {
	return fmt.Sprintf("translation_%d_%s", answerID, targetLanguage)
}

// formatPause renders a duration as H:MM:SS for user-facing countdowns.
func formatPause(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
