package models

import "time"

// CountTotal is the MonthSummary.Counts key holding the number of all requests.
const CountTotal = "total"

// MonthSummary aggregates requests approved into one month.
// Created and updated by the approval transaction; never deleted.
type MonthSummary struct {
	// MonthKey has the form YYYY-MM.
	MonthKey string `json:"monthKey"`
	Label    string `json:"label"`

	// Counts maps a RequestState name (or CountTotal) to a number of requests.
	Counts map[string]int64 `json:"counts"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Counter holds the next variable-symbol sequence number of a calendar year.
type Counter struct {
	Year    int   `json:"year"`
	NextSeq int64 `json:"nextSeq"`
}
