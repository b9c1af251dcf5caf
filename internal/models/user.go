package models

type User struct {
	BaseModel
	Email        string   `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string   `gorm:"not null" json:"-"`
	DisplayName  string   `gorm:"type:varchar(120)" json:"display_name"`
	Role         UserRole `gorm:"type:varchar(20);not null" json:"role"`

	// WalletAddress receives chain transfers; PayoutAccountID is the card-processor
	// account used when payments go through stripe.
	WalletAddress   string `gorm:"type:varchar(128)" json:"wallet_address,omitempty"`
	PayoutAccountID string `gorm:"type:varchar(128)" json:"-"`
}

func (u *User) IsCreator() bool {
	return u.Role == UserRoleCreator
}

// PayeeAccount is where money for this creator should land.
func (u *User) PayeeAccount() string {
	if u.PayoutAccountID != "" {
		return u.PayoutAccountID
	}
	return u.WalletAddress
}
