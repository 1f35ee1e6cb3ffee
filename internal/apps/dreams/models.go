package dreams

import (
	"time"

	"github.com/google/uuid"
)

type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodSad      Mood = "sad"
	MoodAnxious  Mood = "anxious"
	MoodPeaceful Mood = "peaceful"
	MoodConfused Mood = "confused"
	MoodExcited  Mood = "excited"
	MoodNeutral  Mood = "neutral"
)

var Moods = []Mood{MoodHappy, MoodSad, MoodAnxious, MoodPeaceful, MoodConfused, MoodExcited, MoodNeutral}

var moodEmojis = map[Mood]string{
	MoodHappy:    "😊",
	MoodSad:      "😢",
	MoodAnxious:  "😰",
	MoodPeaceful: "😌",
	MoodConfused: "😕",
	MoodExcited:  "🤩",
	MoodNeutral:  "😐",
}

func (m Mood) Valid() bool {
	_, ok := moodEmojis[m]
	return ok
}

// Emoji returns the display emoji, neutral for unknown moods.
func (m Mood) Emoji() string {
	if e, ok := moodEmojis[m]; ok {
		return e
	}
	return moodEmojis[MoodNeutral]
}

// Dream is a single journaled entry. Tags keep the order they were entered in.
type Dream struct {
	ID              string    `gorm:"size:26;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index:idx_dreams_user_date,priority:1" json:"-"`
	Title           string    `gorm:"size:200;not null" json:"title"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	Date            time.Time `gorm:"not null;index:idx_dreams_user_date,priority:2" json:"date"`
	Tags            []string  `gorm:"type:text;serializer:json" json:"tags"`
	Mood            Mood      `gorm:"size:20;not null;default:'neutral'" json:"mood"`
	Image           *string   `gorm:"type:text" json:"image"`
	IsLucid         bool      `gorm:"not null;default:false" json:"is_lucid"`
	IsNightmare     bool      `gorm:"not null;default:false" json:"is_nightmare"`
	Analysis        *string   `gorm:"type:text" json:"analysis,omitempty"`
	Recommendations []string  `gorm:"type:text;serializer:json" json:"recommendations,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Dream) TableName() string {
	return "dreams"
}

// --- Statistics ---

type ThemeCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type MoodBucket struct {
	Label      string    `json:"label"`
	Percentage int       `json:"percentage"`
	Emoji      string    `json:"emoji"`
	Gradient   [2]string `json:"gradient"`
}

// DreamStats is derived from the dream collection on every read and never stored.
type DreamStats struct {
	TotalDreams int `json:"total_dreams"`
	// AverageDreamsPerWeek counts dreams in the trailing seven days.
	AverageDreamsPerWeek int          `json:"average_dreams_per_week"`
	LucidDreams          int          `json:"lucid_dreams"`
	Nightmares           int          `json:"nightmares"`
	PositiveDreams       int          `json:"positive_dreams"`
	CurrentStreak        int          `json:"current_streak"`
	LongestStreak        int          `json:"longest_streak"`
	RecurringThemes      []ThemeCount `json:"recurring_themes"`
	MoodDistribution     []MoodBucket `json:"mood_distribution"`
}

// --- DTOs ---

type CreateDreamRequest struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Date        *time.Time `json:"date"`
	Tags        []string   `json:"tags"`
	Mood        Mood       `json:"mood"`
	Image       *string    `json:"image"`
	IsLucid     bool       `json:"is_lucid"`
	IsNightmare *bool      `json:"is_nightmare"`
}

type UpdateDreamRequest struct {
	Title           *string    `json:"title"`
	Content         *string    `json:"content"`
	Date            *time.Time `json:"date"`
	Tags            *[]string  `json:"tags"`
	Mood            *Mood      `json:"mood"`
	Image           *string    `json:"image"`
	ClearImage      bool       `json:"clear_image"`
	IsLucid         *bool      `json:"is_lucid"`
	IsNightmare     *bool      `json:"is_nightmare"`
	Analysis        *string    `json:"analysis"`
	Recommendations *[]string  `json:"recommendations"`
}

type ListFilter struct {
	Query string
	Month string
}

type DreamListResponse struct {
	Dreams []Dream `json:"dreams"`
	Total  int     `json:"total"`
	Query  string  `json:"query,omitempty"`
	Month  string  `json:"month,omitempty"`
}

type MonthGroup struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type ExportResponse struct {
	ExportedAt time.Time `json:"exported_at"`
	Dreams     []Dream   `json:"dreams"`
}

type ImportRequest struct {
	Dreams []Dream `json:"dreams"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}

type AnalysisResponse struct {
	DreamID  string `json:"dream_id"`
	Analysis string `json:"analysis"`
}

type RecommendationsResponse struct {
	DreamID         string   `json:"dream_id"`
	Recommendations []string `json:"recommendations"`
}

type GenerateImageRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type GenerateImageResponse struct {
	Image string `json:"image"`
}

type TranscriptionResponse struct {
	Text string `json:"text"`
}
