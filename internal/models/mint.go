package models

import "fmt"

type MintingStatus string

type ChainType string

type ContractStatus string

type ContentState string

const (
	MintingStatusNeverMinted           MintingStatus = "Never minted"
	MintingStatusScheduled             MintingStatus = "Scheduled"
	MintingStatusStarted               MintingStatus = "Started"
	MintingStatusCompletedSuccessfully MintingStatus = "Completed successfully"
	MintingStatusError                 MintingStatus = "Error"
)

const (
	ChainTypeEvm    ChainType = "evm"
	ChainTypeSolana ChainType = "solana"
)

const (
	ContractStatusEnabled  ContractStatus = "Enabled"
	ContractStatusDisabled ContractStatus = "Disabled"
)

const (
	ContentStateActive   ContentState = "Active"
	ContentStateInactive ContentState = "Inactive"
)

// ParseMintingStatus converts a persisted status string back into a
// MintingStatus. Unknown values are a hard error, never coerced.
func ParseMintingStatus(s string) (MintingStatus, error) {
	switch MintingStatus(s) {
	case MintingStatusNeverMinted, MintingStatusScheduled, MintingStatusStarted,
		MintingStatusCompletedSuccessfully, MintingStatusError:
		return MintingStatus(s), nil
	}
	return "", fmt.Errorf("unknown minting status %q", s)
}

func ParseContentState(s string) (ContentState, error) {
	switch ContentState(s) {
	case ContentStateActive, ContentStateInactive:
		return ContentState(s), nil
	}
	return "", fmt.Errorf("unknown content state %q", s)
}

func (s ContractStatus) IsDisabled() bool {
	return s == ContractStatusDisabled
}
