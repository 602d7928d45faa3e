package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects how many players take turns.
type Mode string

const (
	ModeSingle Mode = "single"
	ModeDuo    Mode = "duo"
)

// ParseMode accepts the mode names used by clients ("single", "duo", "1", "2").
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "single", "1":
		return ModeSingle, nil
	case "duo", "2":
		return ModeDuo, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, raw)
}

// Player is a configured participant. Score is only changed by the session controller.
type Player struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Slot  int    `json:"slot"`
}

// GameConfig is fixed for the lifetime of a game; a new game needs a new config.
type GameConfig struct {
	Mode    Mode
	Players []Player
}

// NewGameConfig validates names against the mode and builds the player list.
func NewGameConfig(mode Mode, names []string) (GameConfig, error) {
	want := 1
	switch mode {
	case ModeSingle:
	case ModeDuo:
		want = 2
	default:
		return GameConfig{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, mode)
	}
	if len(names) != want {
		return GameConfig{}, fmt.Errorf("%w: %s mode needs %d player name(s), got %d", ErrInvalidConfig, mode, want, len(names))
	}

	players := make([]Player, 0, want)
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return GameConfig{}, fmt.Errorf("%w: player %d name is blank", ErrInvalidConfig, i+1)
		}
		for _, p := range players {
			if strings.EqualFold(p.Name, name) {
				return GameConfig{}, fmt.Errorf("%w: player names must be distinct", ErrInvalidConfig)
			}
		}
		players = append(players, Player{Name: name, Slot: i + 1})
	}
	return GameConfig{Mode: mode, Players: players}, nil
}

// Letters labels the four options of a question.
var Letters = [4]string{"A", "B", "C", "D"}

// Question models a four-option MCQ with exactly one correct option.
// Bank rows always store the correct answer first (Correct == 0) unless an engine reorders them.
type Question struct {
	ID       string    `json:"id"`
	Prompt   string    `json:"prompt"`
	Options  [4]string `json:"options"`
	Correct  int       `json:"correct"`
	Category string    `json:"category,omitempty"`
}

// NewBankQuestion builds a question from bank columns: one correct text then three incorrect ones.
func NewBankQuestion(id, prompt, correct string, incorrect [3]string, category string) Question {
	return Question{
		ID:       id,
		Prompt:   strings.TrimSpace(prompt),
		Options:  [4]string{correct, incorrect[0], incorrect[1], incorrect[2]},
		Correct:  0,
		Category: strings.TrimSpace(category),
	}
}

// CorrectLetter returns the label of the correct option.
func (q Question) CorrectLetter() string {
	return Letters[q.Correct]
}

// CorrectText returns the text of the correct option.
func (q Question) CorrectText() string {
	return q.Options[q.Correct]
}

// Validate checks the prompt and that the four options are non-empty and distinct.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("question %q: empty prompt", q.ID)
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return fmt.Errorf("question %q: correct index %d out of range", q.ID, q.Correct)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for i, opt := range q.Options {
		key := strings.ToLower(strings.TrimSpace(opt))
		if key == "" {
			return fmt.Errorf("question %q: option %s is empty", q.ID, Letters[i])
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("question %q: option %s duplicates another option", q.ID, Letters[i])
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Verdict is the outcome of evaluating one answer.
type Verdict int

const (
	VerdictNone Verdict = iota
	VerdictCorrect
	VerdictIncorrect
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	}
	return "none"
}

// State tags the session lifecycle.
type State string

const (
	StateConfiguring State = "configuring"
	StateInProgress  State = "in_progress"
	StateFinished    State = "finished"
)

// FinishReason explains why a game ended.
type FinishReason string

const (
	// FinishWin ends a duo game: the player who did not miss wins.
	FinishWin FinishReason = "win"
	// FinishIncorrectAnswer ends a single-player game.
	FinishIncorrectAnswer FinishReason = "incorrect-answer"
	// FinishNoQuestions ends a game whose bank ran dry; it is not scored as a loss.
	FinishNoQuestions FinishReason = "no-questions"
)

// PlayerScore is a render-friendly view of a player.
type PlayerScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// FinishSummary is the terminal record of a game.
type FinishSummary struct {
	Reason     FinishReason  `json:"reason"`
	Winner     string        `json:"winner,omitempty"`
	Loser      string        `json:"loser,omitempty"`
	Scores     []PlayerScore `json:"scores"`
	FinalScore int           `json:"finalScore"`
}

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat entry, both in LLM history and in render directives.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Sidebar is the score widget state.
type Sidebar struct {
	State       State          `json:"state"`
	Mode        Mode           `json:"mode,omitempty"`
	Players     []PlayerScore  `json:"players"`
	CurrentTurn string         `json:"currentTurn,omitempty"`
	Finished    bool           `json:"finished"`
	Summary     *FinishSummary `json:"summary,omitempty"`
}

// Directives tell a presentation layer what to append and how to redraw the sidebar.
type Directives struct {
	Entries []Message `json:"entries"`
	Sidebar Sidebar   `json:"sidebar"`
}

// IntentKind enumerates the user actions a presentation layer can forward.
type IntentKind string

const (
	IntentConfigure IntentKind = "configure"
	IntentAnswer    IntentKind = "answer"
	IntentReset     IntentKind = "reset"
	IntentEnd       IntentKind = "end"
)

// Intent is a discrete user action.
type Intent struct {
	Kind  IntentKind
	Mode  Mode
	Names []string
	Text  string
}

// ScoreEntry is one hall-of-fame record.
type ScoreEntry struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Score      int       `json:"score"`
	Mode       Mode      `json:"mode"`
	RecordedAt time.Time `json:"recordedAt"`
}
