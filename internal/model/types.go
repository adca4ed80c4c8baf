// Package model defines shared data structures.
package model

import "time"

// Record is one timestamped review.
type Record struct {
	At    time.Time
	Text  string
	Score float64
}

// Post captures lifetime statistics of one social post.
type Post struct {
	Type         string
	Category     int
	Month        int
	Weekday      int // 1 = Monday ... 7 = Sunday
	Hour         int
	Paid         bool
	Reach        int64
	Impressions  int64
	EngagedUsers int64
	Interactions int64
	Likes        int64
	Comments     int64
	Shares       int64
}

// TextConfig defines normalization settings.
type TextConfig struct {
	Lang          string
	MinToken      int
	Stopwords     []string
	StopwordsFile string
}

// CloudConfig defines canvas and layout settings for a word cloud.
type CloudConfig struct {
	Width            int
	Height           int
	MinFont          int
	MaxFont          int
	FontStep         int
	MaxWords         int
	Scaling          string
	Margin           int
	PreferHorizontal float64
	RandomStart      bool
	Seed             int64
	Background       string
	FontPath         string
}

// WeekSummary summarizes one populated week for listings.
type WeekSummary struct {
	Key       string
	Start     time.Time
	End       time.Time
	Count     int
	MeanScore float64
}

// ImportInfo records one dataset import.
type ImportInfo struct {
	Kind       string
	Source     string
	Rows       int
	ImportedAt time.Time
}
