// internal/service/rpc_error.go
package service

import (
	"errors"
	"strings"

	appErrors "github.com/xefers/xefers-backend/internal/errors"
)

// Substrings matched against failure text from the contract and wallet
// stack. The revert wording is defined by the deployed contract and can
// change underneath us, silently breaking this classification; every match
// therefore lives here and nowhere else.
const (
	msgAlreadyReferred  = "already referred"
	msgCallRevert       = "call revert"
	msgWalletToContinue = "wallet to continue"
)

const wrongNetworkHint = "You may be connected to the wrong network. Please check the selected network and try again."

type FailureKind int

const (
	FailureGeneric FailureKind = iota
	FailureAlreadyReferred
	FailureWalletRequired
	FailureWrongNetwork
)

// RPCErrorText extracts the human-readable reason from a gateway failure.
func RPCErrorText(err error) string {
	if err == nil {
		return ""
	}

	var read *appErrors.ErrContractRead
	if errors.As(err, &read) {
		return read.Reason
	}
	var write *appErrors.ErrContractWrite
	if errors.As(err, &write) {
		return write.Reason
	}
	return err.Error()
}

// ClassifyRPCError translates a gateway failure into the affordance the
// caller should render: a benign repeat visit keeps the continue link, a
// missing wallet gets an explanation instead of an error, and a reverted
// call on the wrong chain gets the network hint.
func ClassifyRPCError(err error) (FailureKind, string) {
	msg := RPCErrorText(err)

	var noProvider *appErrors.ErrNoWalletProvider
	if errors.As(err, &noProvider) {
		return FailureWalletRequired, msg
	}

	switch {
	case strings.Contains(msg, msgAlreadyReferred):
		return FailureAlreadyReferred, msg
	case strings.Contains(msg, msgWalletToContinue):
		return FailureWalletRequired, msg
	case strings.Contains(msg, msgCallRevert):
		return FailureWrongNetwork, wrongNetworkHint
	}
	return FailureGeneric, msg
}
