// Structure of Question Model in Quorum.

package entity

// Saved in DB as question:<this.ID>, indexed in question:index
type Question struct {
	ID         string   `json:"id" redis:"id" valid:"-"`
	Name       string   `json:"name,omitempty" redis:"name" valid:"printableascii,stringlength(1|50)~name:Couldn't validate Name,optional"`
	Category   string   `json:"category" redis:"category" valid:"required,category_custom~category:Unknown question category"`
	Question   string   `json:"question" redis:"question" valid:"required,type(string),stringlength(5|500)~question:Question must be between 5 and 500 characters"`
	CreatedAt  string   `json:"createdAt" redis:"created_at" valid:"-"`
	Likes      []string `json:"likes" redis:"-" valid:"-"`
	Dislikes   []string `json:"dislikes" redis:"-" valid:"-"`
	IsDeleted  bool     `json:"isDeleted" redis:"is_deleted" valid:"-"`
	DeletedBy  string   `json:"deletedBy,omitempty" redis:"deleted_by" valid:"-"`
	DeletedAt  string   `json:"deletedAt,omitempty" redis:"deleted_at" valid:"-"`
	IsVerified bool     `json:"isVerified" redis:"is_verified" valid:"-"`
}

// Search and filter parameters used by the questions listing API.
type QuestionSearch struct {
	Search             string `json:"search" form:"search" valid:"printableascii,stringlength(0|100),optional"`
	Category           string `json:"category" form:"category" valid:"category_custom~category:Unknown question category,optional"`
	VerificationStatus string `json:"verificationStatus" form:"verificationStatus" valid:"in(verified|unverified),optional"`
	Page               int    `json:"page" form:"page" valid:"-"`
	Limit              int    `json:"limit" form:"limit" valid:"-"`
}

// Pagination metadata returned alongside paginated question results.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// Reaction request on a question, action is one of - [like, dislike, remove]
type Reaction struct {
	Action string `json:"action" valid:"required,in(like|dislike|remove)~action:Unknown reaction"`
}
