package application

import (
	"time"

	"github.com/DominikK03/GiftCardSystem-sub001/internal/giftcard/domain"
)

// CardDTO 对外返回的礼品卡快照
type CardDTO struct {
	CardID         string     `json:"card_id"`
	TenantID       string     `json:"tenant_id"`
	Status         string     `json:"status"`
	Balance        int64      `json:"balance"`
	BalanceDisplay string     `json:"balance_display"`
	InitialAmount  int64      `json:"initial_amount"`
	Currency       string     `json:"currency"`
	CardNumber     string     `json:"card_number,omitempty"`
	IssuedAt       time.Time  `json:"issued_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	ActivatedAt    *time.Time `json:"activated_at,omitempty"`
	SuspendedAt    *time.Time `json:"suspended_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	ExpiredAt      *time.Time `json:"expired_at,omitempty"`
	DepletedAt     *time.Time `json:"depleted_at,omitempty"`
	Version        int64      `json:"version"`
}

func toCardDTO(card *domain.GiftCard) *CardDTO {
	return &CardDTO{
		CardID:         card.ID().String(),
		TenantID:       card.TenantID().String(),
		Status:         string(card.CurrentStatus()),
		Balance:        card.Balance().Amount(),
		BalanceDisplay: card.Balance().Decimal().String(),
		InitialAmount:  card.InitialAmount().Amount(),
		Currency:       card.Balance().Currency(),
		CardNumber:     card.CardNumber(),
		IssuedAt:       card.CreatedAt(),
		ExpiresAt:      card.ExpiresAt(),
		ActivatedAt:    card.ActivatedAt(),
		SuspendedAt:    card.SuspendedAt(),
		CancelledAt:    card.CancelledAt(),
		ExpiredAt:      card.ExpiredAt(),
		DepletedAt:     card.DepletedAt(),
		Version:        card.Version(),
	}
}

func viewToDTO(view *domain.CardView) *CardDTO {
	return &CardDTO{
		CardID:         view.CardID,
		TenantID:       view.TenantID,
		Status:         view.Status,
		Balance:        view.Balance,
		BalanceDisplay: view.BalanceDisplay,
		InitialAmount:  view.InitialAmount,
		Currency:       view.Currency,
		CardNumber:     view.CardNumber,
		IssuedAt:       view.IssuedAt,
		ExpiresAt:      view.ExpiresAt,
		ActivatedAt:    view.ActivatedAt,
		SuspendedAt:    view.SuspendedAt,
		CancelledAt:    view.CancelledAt,
		ExpiredAt:      view.ExpiredAt,
		DepletedAt:     view.DepletedAt,
		Version:        view.Playhead,
	}
}
