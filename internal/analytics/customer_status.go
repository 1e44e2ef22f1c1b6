package analytics

// 顧客ステータス（購入回数から）
const (
	CustomerStatusInactive = "inactive"
	CustomerStatusRegular  = "regular"
	CustomerStatusActive   = "active"
	CustomerStatusVIP      = "vip"
)

func CustomerStatus(orderCount int64) string {
	switch {
	case orderCount == 0:
		return CustomerStatusInactive
	case orderCount >= 10:
		return CustomerStatusVIP
	case orderCount >= 5:
		return CustomerStatusActive
	default:
		return CustomerStatusRegular
	}
}
