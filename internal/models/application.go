// internal/models/application.go
package models

// Stage is the pipeline position of a tracked application.
type Stage string

const (
	StageApplied  Stage = "ap"
	StageRound1   Stage = "r1"
	StageRound2   Stage = "r2"
	StageRound3   Stage = "r3"
	StageOffer    Stage = "of"
	StageRejected Stage = "xx"
)

// Valid reports whether s is one of the known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageApplied, StageRound1, StageRound2, StageRound3, StageOffer, StageRejected:
		return true
	}
	return false
}

type Question struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Incomplete reports whether either side of the pair is still missing.
func (q Question) Incomplete() bool {
	return q.Question == "" || q.Answer == ""
}

type ApplicationStage struct {
	Date      int64      `json:"date"` // unix milliseconds
	Questions []Question `json:"questions"`
	Notes     string     `json:"notes"`
}

type Interview struct {
	Round     int        `json:"round"`
	Date      *int64     `json:"date,omitempty"`
	Questions []Question `json:"questions"`
	Notes     *string    `json:"notes,omitempty"`
}

type Application struct {
	ID          string           `json:"id"`
	Company     string           `json:"company"`
	Link        string           `json:"link"`
	Stage       Stage            `json:"stage"`
	Application ApplicationStage `json:"application"`
	Interviews  []Interview      `json:"interviews"`
}

// Started reports whether a draft has progressed past the idle state, i.e.
// it names a company or a link.
func (a *Application) Started() bool {
	return a != nil && (a.Company != "" || a.Link != "")
}

// FirstIncompleteQuestion returns the first question, in array order, whose
// question or answer is empty.
func (a *Application) FirstIncompleteQuestion() (Question, bool) {
	if a == nil {
		return Question{}, false
	}
	for _, q := range a.Application.Questions {
		if q.Incomplete() {
			return q, true
		}
	}
	return Question{}, false
}

// WithoutBlankQuestions returns a copy of a whose initial-stage questions
// exclude entries with empty question text. Unanswered questions are kept.
func (a Application) WithoutBlankQuestions() Application {
	kept := make([]Question, 0, len(a.Application.Questions))
	for _, q := range a.Application.Questions {
		if q.Question != "" {
			kept = append(kept, q)
		}
	}
	a.Application.Questions = kept
	if a.Interviews == nil {
		a.Interviews = []Interview{}
	}
	return a
}
