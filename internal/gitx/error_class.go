// SPDX-License-Identifier: MIT
package gitx

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrAuthFailure marks authentication/authorization failures.
	ErrAuthFailure = errors.New("git auth error")
	// ErrNetworkFailure marks network/transport failures.
	ErrNetworkFailure = errors.New("git network error")
	// ErrCorruptRepo marks corrupt or invalid-repository failures.
	ErrCorruptRepo = errors.New("git corrupt repository")
	// ErrMissingRemoteRef marks missing upstream/ref/remote failures.
	ErrMissingRemoteRef = errors.New("git missing remote")
	// ErrPushRejected marks a push refused because the remote has diverged.
	ErrPushRejected = errors.New("git push rejected")
)

// Error classes reported by ClassifyError.
const (
	ClassAuth          = "auth"
	ClassNetwork       = "network"
	ClassRejected      = "rejected"
	ClassMissingRemote = "missing_remote"
	ClassCorrupt       = "corrupt"
	ClassTimeout       = "timeout"
	ClassUnknown       = "unknown"
)

// ClassifyError maps git/process errors into broad actionable categories.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassTimeout
	}
	if errors.Is(err, ErrAuthFailure) {
		return ClassAuth
	}
	if errors.Is(err, ErrNetworkFailure) {
		return ClassNetwork
	}
	if errors.Is(err, ErrPushRejected) {
		return ClassRejected
	}
	if errors.Is(err, ErrCorruptRepo) {
		return ClassCorrupt
	}
	if errors.Is(err, ErrMissingRemoteRef) {
		return ClassMissingRemote
	}

	msg := strings.ToLower(err.Error() + " " + Stderr(err))
	switch {
	case IsPushRejected(err):
		return ClassRejected
	case containsAny(msg, "permission denied", "authentication failed", "access denied", "publickey", "could not read username", "credential", "invalid username or password"):
		return ClassAuth
	case containsAny(msg, "could not resolve host", "network is unreachable", "connection timed out", "failed to connect", "temporary failure in name resolution", "tls handshake timeout"):
		return ClassNetwork
	case containsAny(msg, "timeout", "timed out", "deadline exceeded"):
		return ClassTimeout
	case containsAny(msg, "not a git repository", "bad object", "corrupt", "object file"):
		return ClassCorrupt
	case containsAny(msg, "repository not found", "couldn't find remote ref", "remote ref does not exist", "no such remote"):
		return ClassMissingRemote
	default:
		return ClassUnknown
	}
}

// IsPushRejected reports whether err is a push refused as non-fast-forward.
func IsPushRejected(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPushRejected) {
		return true
	}
	msg := strings.ToLower(Stderr(err))
	if msg == "" {
		msg = strings.ToLower(err.Error())
	}
	return containsAny(msg, "[rejected]", "non-fast-forward", "fetch first", "updates were rejected")
}

func containsAny(msg string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
