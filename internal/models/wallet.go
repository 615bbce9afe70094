package models

// Wallet holds the single-use deposit keypair generated for one payment
// session. PrivateKey is an opaque secret: it is never serialized or logged,
// and at-rest protection belongs to the storage layer.
type Wallet struct {
	BaseModel
	PublicKey  string `gorm:"column:public_key" json:"publicKey"`
	PrivateKey string `gorm:"column:private_key" json:"-"`
	Address    string `gorm:"uniqueIndex" json:"address"`
}

func (Wallet) TableName() string {
	return "wallet"
}
