package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"clinic_backoffice/models"

	"github.com/google/uuid"
	"github.com/mssola/useragent"
	"gorm.io/gorm"
)

// DeviceInfo is the client-supplied device description attached to capture
// requests.
type DeviceInfo struct {
	Platform  string `json:"platform"`
	Model     string `json:"model"`
	DeviceID  string `json:"device_id"`
	OSVersion string `json:"os_version"`
	UserAgent string `json:"user_agent"`
}

// Fingerprint hashes the stable device attributes. Identical input always
// yields the identical fingerprint; OS version and user agent are excluded
// because they change across updates.
func Fingerprint(info DeviceInfo) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s", info.Platform, info.Model, info.DeviceID)
	return hex.EncodeToString(h.Sum(nil))
}

// DeviceLabel derives a human-readable label for a binding, preferring the
// user-agent string when one was captured.
func DeviceLabel(info DeviceInfo) string {
	if info.UserAgent != "" {
		ua := useragent.New(info.UserAgent)
		name, version := ua.Browser()
		label := strings.TrimSpace(strings.Join([]string{ua.OS(), name, version}, " "))
		if label != "" {
			return label
		}
	}
	label := strings.TrimSpace(info.Platform + " " + info.Model)
	if label == "" {
		return "unknown device"
	}
	return label
}

type DeviceStore interface {
	// FindByUserAndFingerprint returns gorm.ErrRecordNotFound when no
	// binding exists.
	FindByUserAndFingerprint(userID, fingerprint string) (*models.DeviceBinding, error)
	// Create returns gorm.ErrDuplicatedKey when the (user, fingerprint)
	// pair already exists.
	Create(binding *models.DeviceBinding) error
}

// DeviceTrustRegistry tracks which devices a user captures attendance from.
// Registration is advisory bookkeeping for auditors, not an access gate: a
// pending device never blocks a capture.
type DeviceTrustRegistry struct {
	store       DeviceStore
	autoApprove bool
	now         func() time.Time
}

func NewDeviceTrustRegistry(store DeviceStore, autoApprove bool) *DeviceTrustRegistry {
	return &DeviceTrustRegistry{store: store, autoApprove: autoApprove, now: time.Now}
}

// AutoRegister looks up the binding for (user, fingerprint) and creates one
// in pending (or approved, under the auto-approve policy) when absent.
// wasNew reports whether this sighting created the binding. Under a
// concurrent first sighting the first writer wins and the loser returns the
// existing row.
func (r *DeviceTrustRegistry) AutoRegister(userID string, info DeviceInfo) (binding *models.DeviceBinding, wasNew bool, err error) {
	fingerprint := Fingerprint(info)

	existing, err := r.store.FindByUserAndFingerprint(userID, fingerprint)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	status := models.DevicePending
	if r.autoApprove {
		status = models.DeviceApproved
	}
	created := &models.DeviceBinding{
		ID:          uuid.New().String(),
		UserID:      userID,
		Fingerprint: fingerprint,
		Label:       DeviceLabel(info),
		Status:      status,
		FirstSeenAt: r.now(),
	}

	if err := r.store.Create(created); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, ferr := r.store.FindByUserAndFingerprint(userID, fingerprint)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return created, true, nil
}
