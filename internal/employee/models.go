package employee

import "time"

// UserType is the clinic role an employee record stands for. There is one
// credential per role, shared by everyone working it.
type UserType string

const (
	UserTypeAdmin     UserType = "admin"
	UserTypeRegistrar UserType = "registrar"
	UserTypeCashier   UserType = "cashier"
	UserTypeLab       UserType = "lab"
	UserTypeDoctor    UserType = "doctor"
	UserTypeEyeDoctor UserType = "eye-doctor"
)

// AllUserTypes lists every role that can sign up.
var AllUserTypes = []UserType{
	UserTypeAdmin,
	UserTypeRegistrar,
	UserTypeCashier,
	UserTypeLab,
	UserTypeDoctor,
	UserTypeEyeDoctor,
}

func (u UserType) IsValid() bool {
	for _, known := range AllUserTypes {
		if u == known {
			return true
		}
	}
	return false
}

// Employee is a credential record. Password holds ciphertext, never plaintext.
type Employee struct {
	ID        string    `json:"_id" bson:"_id"`
	UserType  UserType  `json:"userType" bson:"userType"`
	Password  string    `json:"-" bson:"password"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type SignupRequest struct {
	UserType UserType `json:"userType"`
	Password string   `json:"password"`
}

type LoginRequest struct {
	UserType UserType `json:"userType"`
	Password string   `json:"password"`
}

// AuthResult is returned by both signup and login.
type AuthResult struct {
	UserType UserType `json:"userType"`
	Token    string   `json:"token"`
}
