package domain

import (
	"encoding/json"
	"time"
)

// Category groups quizzes by the kind of in-game item they cover.
type Category string

const (
	CategoryCharacters Category = "characters"
	CategoryPets       Category = "pets"
	CategoryWeapons    Category = "weapons"
)

// Categories lists the supported categories in display order.
var Categories = []Category{CategoryCharacters, CategoryPets, CategoryWeapons}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCharacters, CategoryPets, CategoryWeapons:
		return true
	}
	return false
}

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// Question models an MCQ question with exactly one correct option.
type Question struct {
	ID      string              `json:"id"`
	Prompt  string              `json:"prompt"`
	Options [OptionCount]string `json:"options"`
	Correct int                 `json:"-"`
}

// Quiz is an immutable, ordered collection of questions about one item.
type Quiz struct {
	ID            string      `json:"id"`
	Category      Category    `json:"category"`
	Name          string      `json:"name"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Questions     []Question  `json:"questions"`
	PassThreshold int         `json:"passThreshold,omitempty"` // 0 means the service default
	Details       ItemDetails `json:"-"`
}

// OptionLabel returns the letter shown next to option i (A-D).
func OptionLabel(i int) string {
	return string(rune('A' + i))
}

// CompletedAttempt is the persisted outcome of a settled session.
type CompletedAttempt struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quizId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CoinsEarned    int       `json:"coinsEarned"`
	CompletedAt    time.Time `json:"completedAt"`
}

// Perfect reports whether every question was answered correctly.
func (a CompletedAttempt) Perfect() bool {
	return a.TotalQuestions > 0 && a.Score == a.TotalQuestions
}

// Profile is the per-user document owned by the profile store.
// Readers ignore unknown fields, so new fields can be added without a migration.
type Profile struct {
	UserID           string             `json:"uid"`
	DisplayName      string             `json:"displayName"`
	Email            string             `json:"email,omitempty"`
	PhotoURL         string             `json:"photoURL,omitempty"`
	GameID           string             `json:"freeFireId,omitempty"`
	Region           string             `json:"region,omitempty"`
	GameData         json.RawMessage    `json:"freeFireData,omitempty"`
	PasswordHash     string             `json:"passwordHash,omitempty"`
	TotalCoins       int                `json:"totalCoins"`
	QuizzesCompleted int                `json:"quizzesCompleted"`
	CompletedQuizzes []CompletedAttempt `json:"completedQuizzes"`
	RewardRedeemed   int                `json:"rewardRedeemed"`
	CreatedAt        time.Time          `json:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt"`
}

// Attempt returns the recorded attempt for quizID, if any.
func (p Profile) Attempt(quizID string) (CompletedAttempt, bool) {
	for _, a := range p.CompletedQuizzes {
		if a.QuizID == quizID {
			return a, true
		}
	}
	return CompletedAttempt{}, false
}

// Clone returns a copy that shares no slices with p.
func (p Profile) Clone() Profile {
	out := p
	if p.CompletedQuizzes != nil {
		out.CompletedQuizzes = append([]CompletedAttempt(nil), p.CompletedQuizzes...)
	}
	if p.GameData != nil {
		out.GameData = append(json.RawMessage(nil), p.GameData...)
	}
	return out
}

// ProfileField names a numeric profile field that can be ranked.
type ProfileField string

const (
	FieldTotalCoins       ProfileField = "totalCoins"
	FieldQuizzesCompleted ProfileField = "quizzesCompleted"
)

// Valid reports whether f can be used for ranking.
func (f ProfileField) Valid() bool {
	return f == FieldTotalCoins || f == FieldQuizzesCompleted
}

// Value extracts the ranked value from p.
func (f ProfileField) Value(p Profile) int {
	if f == FieldQuizzesCompleted {
		return p.QuizzesCompleted
	}
	return p.TotalCoins
}

// SessionStatus is the state of a quiz session.
type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionFinished   SessionStatus = "finished"
)

// SessionRecord is the storable form of an active quiz session.
type SessionRecord struct {
	UserID        string            `json:"userId"`
	QuizID        string            `json:"quizId"`
	QuestionIndex int               `json:"questionIndex"`
	Score         int               `json:"score"`
	Selected      *int              `json:"selected,omitempty"`
	Finished      bool              `json:"finished"`
	Saved         bool              `json:"saved"`
	Result        *SettlementResult `json:"result,omitempty"`
	StartedAt     time.Time         `json:"startedAt"`
}

// OptionView is an answer option as presented to the player.
type OptionView struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// QuestionView is a question without its answer key.
type QuestionView struct {
	ID      string       `json:"id"`
	Number  int          `json:"number"`
	Prompt  string       `json:"prompt"`
	Options []OptionView `json:"options"`
}

// SessionView is what the UI renders for the current session.
type SessionView struct {
	QuizID         string            `json:"quizId"`
	QuizTitle      string            `json:"quizTitle"`
	Status         SessionStatus     `json:"status"`
	QuestionIndex  int               `json:"questionIndex"`
	TotalQuestions int               `json:"totalQuestions"`
	Progress       float64           `json:"progress"`
	Score          int               `json:"score"`
	Question       *QuestionView     `json:"question,omitempty"`
	Selected       *int              `json:"selected,omitempty"`
	Passed         *bool             `json:"passed,omitempty"`
	Saved          bool              `json:"saved"`
	Result         *SettlementResult `json:"result,omitempty"`
}

// SettlementResult is returned once a finished session has been recorded.
type SettlementResult struct {
	Passed      bool             `json:"passed"`
	CoinsEarned int              `json:"coinsEarned"`
	NewBalance  int              `json:"newBalance"`
	Attempt     CompletedAttempt `json:"attempt"`
}

// Tier is a fixed coins-to-reward exchange rate.
type Tier struct {
	CoinsCost    int `json:"coinsCost" yaml:"coins"`
	RewardAmount int `json:"rewardAmount" yaml:"reward"`
}

// Rate is the reward granted per coin.
func (t Tier) Rate() float64 {
	if t.CoinsCost == 0 {
		return 0
	}
	return float64(t.RewardAmount) / float64(t.CoinsCost)
}

// RedemptionResult summarizes a successful redemption.
type RedemptionResult struct {
	Tier          Tier `json:"tier"`
	NewBalance    int  `json:"newBalance"`
	RewardGranted int  `json:"rewardGranted"`
}

// VerificationRecord is what the external game-account API returns for an id.
type VerificationRecord struct {
	GameID   string          `json:"gameId"`
	Region   string          `json:"region"`
	Nickname string          `json:"nickname"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// Region is a game server region accepted at signup.
type Region struct {
	Code  string `json:"value"`
	Label string `json:"label"`
}

// Regions lists the supported game regions.
var Regions = []Region{
	{Code: "ind", Label: "India"},
	{Code: "br", Label: "Brazil"},
	{Code: "id", Label: "Indonesia"},
	{Code: "th", Label: "Thailand"},
	{Code: "vn", Label: "Vietnam"},
	{Code: "eu", Label: "Europe"},
	{Code: "me", Label: "Middle East"},
	{Code: "us", Label: "US"},
	{Code: "bd", Label: "Bangladesh"},
	{Code: "pk", Label: "Pakistan"},
}

// KnownRegion reports whether code is a supported region.
func KnownRegion(code string) bool {
	for _, r := range Regions {
		if r.Code == code {
			return true
		}
	}
	return false
}

// LeaderboardEntry is a ranked, public view of a profile.
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	UserID           string `json:"userId"`
	DisplayName      string `json:"displayName"`
	TotalCoins       int    `json:"totalCoins"`
	QuizzesCompleted int    `json:"quizzesCompleted"`
}

// Leaderboard captures the ordered ranking for one field.
type Leaderboard struct {
	Field     ProfileField       `json:"field"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Achievement is a milestone derived from a profile.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Requirement int    `json:"requirement"`
	Current     int    `json:"current"`
	Unlocked    bool   `json:"unlocked"`
}

// HistoryEntry is a completed attempt joined with its quiz title.
type HistoryEntry struct {
	CompletedAttempt
	QuizTitle string   `json:"quizTitle"`
	Category  Category `json:"category"`
}
