package models

// UserMeta stores one directory attribute value of a user under its meta key.
// Multi-valued attributes are stored newline-joined.
type UserMeta struct {
	ID      uint64 `gorm:"primaryKey"`
	UserID  uint64 `gorm:"not null;uniqueIndex:idx_user_meta_key"`
	MetaKey string `gorm:"size:191;not null;uniqueIndex:idx_user_meta_key"`
	Value   string `gorm:"type:text"`
}
