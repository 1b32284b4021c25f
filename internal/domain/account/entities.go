package account

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Table: accounts. Wallet custody lives in the ledger; only the name and
// address needed to address ledger calls are kept here.
type Account struct {
	ID            uint64    `gorm:"primaryKey;column:id" json:"-"`
	UserID        string    `gorm:"size:32;uniqueIndex:ux_accounts_user_id" json:"user_id"`
	WalletName    string    `gorm:"size:64" json:"wallet_name"`
	WalletAddress string    `gorm:"size:128" json:"wallet_address"`
	Role          Role      `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "accounts" }
