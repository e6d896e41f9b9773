package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	tests := []struct {
		name        string
		status      string
		closingDate *time.Time
		want        string
	}{
		{"closed stays closed", RfpClosed, &tomorrow, RfpClosed},
		{"active past closing derives closed", RfpActive, &yesterday, RfpClosed},
		{"draft past closing derives closed", RfpDraft, &yesterday, RfpClosed},
		{"active before closing stays active", RfpActive, &tomorrow, RfpActive},
		{"active without closing date stays active", RfpActive, nil, RfpActive},
		{"draft without closing date stays draft", RfpDraft, nil, RfpDraft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveStatus(tt.status, tt.closingDate, now))
		})
	}
}

func TestEffectiveStatusIgnoresStaleStoredStatus(t *testing.T) {
	// A reconciliation job that never ran must not make an expired RFP look
	// open. The stored status is a cache, closing_date is ground truth.
	now := time.Now()
	yesterday := now.Add(-24 * time.Hour)
	assert.Equal(t, RfpClosed, EffectiveStatus(RfpActive, &yesterday, now))
}

func TestEmailDomain(t *testing.T) {
	assert.Equal(t, "acme.com", EmailDomain("alice@acme.com"))
	assert.Equal(t, "acme.com", EmailDomain("Alice@ACME.com"))
	assert.Equal(t, "acme.com", EmailDomain(`"weird@local"@acme.com`))
	assert.Equal(t, "", EmailDomain("not-an-email"))
	assert.Equal(t, "", EmailDomain(""))
}

func TestIsConsumerEmailDomain(t *testing.T) {
	assert.True(t, IsConsumerEmailDomain("gmail.com"))
	assert.True(t, IsConsumerEmailDomain("yahoo.com"))
	assert.True(t, IsConsumerEmailDomain("outlook.com"))
	assert.False(t, IsConsumerEmailDomain("acme.com"))
	assert.False(t, IsConsumerEmailDomain(""))
}
