package models

// Recipient roles for notification requests.
const (
	RoleInvestigator = "investigator"
	RoleAssignee     = "assignee"
	RoleCaseManager  = "case_manager"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
	Version int32       `json:"__v" bson:"__v"`
}

// UserDetails holds the structure for the inner user structure as defined in the user collection in mongo
type UserDetails struct {
	TenantID  string      `json:"tenantID" bson:"tenantID"`
	Email     string      `json:"email" bson:"email"`
	Name      string      `json:"name" bson:"name"`
	Username  string      `json:"username" bson:"username"`
	Password  string      `json:"password" bson:"password"`
	Role      string      `json:"role" bson:"role"`
	CreatedAt interface{} `json:"createdAt" bson:"createdAt"`
	UpdatedAt interface{} `json:"updatedAt" bson:"updatedAt"`
}
