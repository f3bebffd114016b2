// Structure of the admin statistics Model in Quorum.

package entity

type AdminStats struct {
	TotalQuestions    int   `json:"totalQuestions"`
	VerifiedUsers     int   `json:"verifiedUsers"`
	UnverifiedUsers   int   `json:"unverifiedUsers"`
	TotalLikes        int   `json:"totalLikes"`
	TotalDislikes     int   `json:"totalDislikes"`
	DeletedQuestions  int   `json:"deletedQuestions"`
	ActiveStreamConns int64 `json:"activeStreamConnections"`
}
