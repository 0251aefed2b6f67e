package domain

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// Claims is the identity extracted from a verified access token. Token
// issuance lives in the identity service; this API only verifies.
type Claims struct {
	UserID uint   `json:"sub"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
}

func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin
}
