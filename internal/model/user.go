package model

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User is an account. UID is the opaque partition key that namespaces the
// owner's family collection in the member store.
type User struct {
	gorm.Model
	UID      string `gorm:"size:36;uniqueIndex;not null" json:"uid"`
	Username string `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email    string `gorm:"size:100" json:"email"`
	Password string `gorm:"size:100" json:"-"`
	Guest    bool   `gorm:"not null;default:false" json:"guest"`
}

// SetPassword hashes and stores the plaintext password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether the plaintext password matches the stored
// hash. Guest accounts have no password and always fail the check.
func (u *User) CheckPassword(password string) bool {
	if u.Password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// TableName sets the table name used by gorm.
func (User) TableName() string {
	return "users"
}
