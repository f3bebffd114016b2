// Structure of User Model in Quorum.

package entity

// User roles in Quorum, admins are allowed to moderate content.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Saved in DB as user:<this.Username>, indexed in user:index
type User struct {
	Username   string `json:"username" redis:"username" valid:"required,type(string),printableascii,stringlength(5|20),username_custom~username:Username can only contain letters numbers underscores and periods"`
	FullName   string `json:"full_name,omitempty" redis:"full_name" valid:"stringlength(5|30),fullname_custom~full_name:Couldn't validate Full Name,optional"`
	Email      string `json:"email" redis:"email" valid:"required,email~email:Couldn't validate Email"`
	Password   string `json:"password,omitempty" redis:"password" valid:"required,minstringlength(5),pwdstrength~password:At least 1 letter and 1 number is mandatory"`
	Role       string `json:"role" redis:"role" valid:"-"`
	Verified   bool   `json:"verified" redis:"verified" valid:"-"`
	ProfilePic string `json:"user_profile_pic,omitempty" redis:"user_profile_pic" valid:"-"`
	CreatedAt  string `json:"createdAt,omitempty" redis:"created_at" valid:"-"`
}

// Credentials received during login.
type UserLogin struct {
	Username string `json:"username" valid:"required,type(string),printableascii,stringlength(5|20),username_custom~username:Couldn't validate Username"`
	Password string `json:"password" valid:"required,minstringlength(5)"`
}

// Profile fields an user is allowed to change.
type UserProfileUpdate struct {
	FullName   string `json:"full_name,omitempty" valid:"stringlength(5|30),fullname_custom~full_name:Couldn't validate Full Name,optional"`
	ProfilePic string `json:"user_profile_pic,omitempty" valid:"printableascii,optional"`
}

// Moderation fields an admin is allowed to change on an user.
type UserModeration struct {
	Role     *string `json:"role,omitempty" valid:"-"`
	Verified *bool   `json:"verified,omitempty" valid:"-"`
}
