// Package models defines the core data structures for users, things and
// reviews, together with their response-facing views.
package models

import "time"

// User represents a stored Thingful account.
type User struct {
	// ID is assigned by the store.
	ID int64
	// UserName is the unique login name.
	UserName string
	// FullName is the display name chosen at registration.
	FullName string
	// Nickname is optional.
	Nickname string
	// Password holds the bcrypt hash, never the plaintext.
	Password string
	// DateCreated is set by the store on insert.
	DateCreated time.Time
}

// NewUser is the candidate record passed to the store on registration.
// Password must already be hashed.
type NewUser struct {
	UserName string
	FullName string
	Nickname string
	Password string
}

// UserView is the public projection of a User. It never carries the hash.
type UserView struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"full_name"`
	UserName    string    `json:"user_name"`
	Nickname    string    `json:"nickname"`
	DateCreated time.Time `json:"date_created"`
}

// Thing is a reviewable item together with its author and review aggregates.
type Thing struct {
	ID                  int64
	Title               string
	Content             string
	Image               string
	DateCreated         time.Time
	NumberOfReviews     int64
	AverageReviewRating float64
	Author              User
}

// ThingView is the response-facing projection of a Thing.
type ThingView struct {
	ID                  int64     `json:"id"`
	Title               string    `json:"title"`
	Content             string    `json:"content"`
	Image               string    `json:"image"`
	DateCreated         time.Time `json:"date_created"`
	NumberOfReviews     int64     `json:"number_of_reviews"`
	AverageReviewRating float64   `json:"average_review_rating"`
	User                UserView  `json:"user"`
}

// Review is a user's rating of a thing.
type Review struct {
	ID          int64
	Text        string
	Rating      int
	ThingID     int64
	DateCreated time.Time
	Author      User
}

// NewReview is the candidate record for a review insert.
type NewReview struct {
	ThingID int64
	UserID  int64
	Rating  int
	Text    string
}

// ReviewView is the response-facing projection of a Review.
type ReviewView struct {
	ID          int64     `json:"id"`
	Rating      int       `json:"rating"`
	Text        string    `json:"text"`
	ThingID     int64     `json:"thing_id"`
	DateCreated time.Time `json:"date_created"`
	User        UserView  `json:"user"`
}
