package domain

// Status 礼品卡状态，由事件流推导，不作为独立可变字段存储
type Status string

const (
	StatusInactive  Status = "INACTIVE"
	StatusActive    Status = "ACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusExpired   Status = "EXPIRED"
	StatusDepleted  Status = "DEPLETED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal 终态后不允许再追加任何改变余额的事件
func (s Status) IsTerminal() bool {
	switch s {
	case StatusExpired, StatusDepleted, StatusCancelled:
		return true
	}
	return false
}
