package models

// User is the privileged account record read by the authorization gate.
// Accounts are created and edited by the account subsystem, never by the pipeline.
type User struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"-" bson:"-"`
	Username  string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username" bson:"username"`
	UserLevel int    `gorm:"not null;default:1;column:user_level" json:"user_level" bson:"user_level"`
}
