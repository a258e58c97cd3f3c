package onboarding

import (
	"time"

	"github.com/Premm1996/Truehire-sub004/internal/dto"
)

// DefaultCooldown — окно блокировки после провала интервью.
const DefaultCooldown = 30 * 24 * time.Hour

// RetryPolicy задаёт окно, в течение которого после провала
// запрещены любые переходы вперёд.
type RetryPolicy struct {
	Cooldown time.Duration
}

func NewRetryPolicy(cooldown time.Duration) RetryPolicy {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return RetryPolicy{Cooldown: cooldown}
}

func (p RetryPolicy) RetryAfter(now time.Time) time.Time {
	return now.Add(p.Cooldown)
}

// Blocked сообщает, действует ли ещё блокировка для данного состояния.
// Истечение окна не переводит этап автоматически: состояние остаётся
// FAILED до явного сброса.
func (p RetryPolicy) Blocked(st *dto.StageState, now time.Time) bool {
	if st == nil || st.Status != dto.StatusFailed {
		return false
	}
	if st.RetryAfter == nil {
		return false
	}
	return now.Before(*st.RetryAfter)
}
