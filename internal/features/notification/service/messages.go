package service

import (
	"fmt"
	"strings"

	claimmodels "airdrop-claim-backend/internal/features/claim/models"
)

// ClaimEvent carries the fields announced to operators when a claim
// completes.
type ClaimEvent struct {
	WalletAddress   string
	TwitterUsername string
	TelegramID      string
	TokenAmount     int64
	ReferredBy      string
	TransactionHash string
}

// BuildClaimMessage formats the operator announcement for a completed
// claim.
func BuildClaimMessage(ev ClaimEvent) string {
	var b strings.Builder
	b.WriteString("🎉 New airdrop claim!\n\n")
	b.WriteString("Wallet: ")
	b.WriteString(ev.WalletAddress)
	b.WriteString("\n")
	if ev.TokenAmount > 0 {
		b.WriteString(fmt.Sprintf("Tokens: %d\n", ev.TokenAmount))
	}
	if ev.TwitterUsername != "" {
		b.WriteString("Twitter: @")
		b.WriteString(strings.TrimPrefix(ev.TwitterUsername, "@"))
		b.WriteString("\n")
	}
	if ev.TelegramID != "" {
		b.WriteString("Telegram: ")
		b.WriteString(ev.TelegramID)
		b.WriteString("\n")
	}
	if ev.ReferredBy != "" {
		b.WriteString("Referred by: ")
		b.WriteString(ev.ReferredBy)
		b.WriteString("\n")
	}
	if ev.TransactionHash != "" {
		b.WriteString("Tx: ")
		b.WriteString(ev.TransactionHash)
		b.WriteString("\n")
	}
	return b.String()
}

// BuildStatusMessage formats the current claim state of a wallet for the
// status notification.
func BuildStatusMessage(record *claimmodels.ClaimRecord) string {
	var b strings.Builder
	b.WriteString("📋 Claim status\n\n")
	b.WriteString("Wallet: ")
	b.WriteString(record.WalletAddress)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Tokens: %d\n", record.TokenAmount))
	if record.TransactionHash != "" {
		b.WriteString("Tx: ")
		b.WriteString(record.TransactionHash)
		b.WriteString("\n")
	} else {
		b.WriteString("Tx: pending\n")
	}
	b.WriteString("Claimed at: ")
	b.WriteString(record.CreatedAt.UTC().Format("02 Jan 2006 15:04 UTC"))
	return b.String()
}
