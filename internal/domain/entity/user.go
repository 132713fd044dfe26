package entity

import "time"

// User is the slim projection of an account this core needs: enough to
// resolve admin privileges and render a display name on notifications.
// Accounts themselves are owned by the identity service.
type User struct {
	ID        string    `json:"id" firestore:"id"`
	Email     string    `json:"email" firestore:"email"`
	Username  string    `json:"username" firestore:"username"`
	Role      string    `json:"role" firestore:"role"` // customer, merchant, admin
	FCMToken  string    `json:"fcm_token,omitempty" firestore:"fcmToken,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}
