package models

import "time"

type EntitlementStore interface {
	UpsertEntitlement(userID, chatID int64, expiresAt time.Time) error
	GetEntitlement(userID int64) (*Entitlement, error)
	DeleteEntitlement(userID int64) error
	ListEntitlements() ([]Entitlement, error)
}
