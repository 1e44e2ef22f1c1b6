package model

import "time"

// 売上の作成・更新・削除、カタログ削除、値下げなど。
type AuditAction string

const (
	AuditActionCreateSale     AuditAction = "CREATE_SALE"
	AuditActionUpdateSale     AuditAction = "UPDATE_SALE"
	AuditActionDeleteSale     AuditAction = "DELETE_SALE"
	AuditActionDeleteProduct  AuditAction = "DELETE_PRODUCT"
	AuditActionDeleteCustomer AuditAction = "DELETE_CUSTOMER"
	AuditActionUpdatePrice    AuditAction = "UPDATE_PRICE"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceSale     AuditResourceType = "sale"
	AuditResourceProduct  AuditResourceType = "product"
	AuditResourceCustomer AuditResourceType = "customer"
)

// 監査ログ。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作したユーザーのID（CLIからは0）
	ActorUserID int64 `gorm:"not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	ResourceID int64 `gorm:"not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`
	AfterJSON  string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
