package model

import "time"

// 顧客。削除すると売上もまとめて消える。
type Customer struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(150);not null;index" json:"name"`
	Email     string    `gorm:"type:varchar(254);not null;uniqueIndex" json:"email"`
	Phone     string    `gorm:"type:varchar(20);not null;default:''" json:"phone"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
