package models

import "time"

// Review is a homeowner review of an artisan, stored in the artisan's
// "avis" subcollection. Rating is an integer in [1,5].
type Review struct {
	ID              string    `json:"id" firestore:"-"`
	Rating          int       `json:"rating" firestore:"rating"`
	Comment         string    `json:"comment,omitempty" firestore:"comment,omitempty"`
	ClientName      string    `json:"clientName" firestore:"clientName"`
	ClientEmail     string    `json:"clientEmail,omitempty" firestore:"clientEmail,omitempty"`
	Displayed       bool      `json:"displayed" firestore:"displayed"`
	ModeratedBy     string    `json:"moderatedBy,omitempty" firestore:"moderatedBy,omitempty"`
	ModerationNotes string    `json:"moderationNotes,omitempty" firestore:"moderationNotes,omitempty"`
	CreatedAt       time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt       time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}
