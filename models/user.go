package models

import "time"

// User is a player profile.
type User struct {
	ID             string    `bson:"id" json:"id" firestore:"uid"`
	Username       string    `bson:"username" json:"username" firestore:"username"`
	Email          string    `bson:"email" json:"email" firestore:"email"`
	Description    string    `bson:"description" json:"description" firestore:"description"`
	SportList      []string  `bson:"sport_list" json:"sportList" firestore:"sportList"`
	Role           string    `bson:"role" json:"role" firestore:"role"`
	AssistanceRate float64   `bson:"assistance_rate" json:"assistanceRate" firestore:"assistanceRate"`
	AvgRating      float64   `bson:"avg_rating" json:"avgRating" firestore:"avgRating"`
	NumRating      int64     `bson:"num_rating" json:"numRating" firestore:"numRating"`
	FCMToken       string    `bson:"fcm_token,omitempty" json:"-" firestore:"fcmToken,omitempty"`
	ProfileImage   string    `bson:"profile_image,omitempty" json:"profileImage,omitempty" firestore:"profileImage,omitempty"`
	CreatedAt      time.Time `bson:"created_at" json:"createdAt" firestore:"createdAt"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updatedAt" firestore:"updatedAt"`
}

// UserUpdateRequest carries a partial profile update. Nil fields are left untouched.
type UserUpdateRequest struct {
	Username     *string  `json:"username"`
	Description  *string  `json:"description"`
	SportList    []string `json:"sportList"`
	ProfileImage *string  `json:"profileImage"`
}
