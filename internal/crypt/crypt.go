// Package crypt implements the encrypted-scalar envelope and the
// symmetric Encryptor collaborator used for settings and generated
// manifests.
package crypt

import (
	"fmt"
	"regexp"
	"strings"
)

// Envelope format: enc:<cipher-id>:<payload>:end. The payload is
// URL-safe base64 and can therefore never contain a colon.
const (
	envelopePrefix = "enc:"
	envelopeSuffix = ":end"
)

var envelopeRe = regexp.MustCompile(`enc:([A-Za-z0-9_-]+):([A-Za-z0-9_=-]+):end`)
var wholeEnvelopeRe = regexp.MustCompile(`^enc:([A-Za-z0-9_-]+):([A-Za-z0-9_=-]+):end$`)

// Encryptor turns a plaintext string into an envelope and back. It is
// deliberately opaque to the rest of the system.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(envelope string) (string, error)
}

// DecryptionError is fatal. It names the offending envelope but never
// the key or the plaintext.
type DecryptionError struct {
	// Envelope is the ciphertext wrapper that failed.
	Envelope string
	// Reason describes the failure.
	Reason string
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("cannot decrypt %s: %s", e.Envelope, e.Reason)
}

// IsEnvelope reports whether value is exactly one encrypted envelope.
func IsEnvelope(value string) bool {
	return wholeEnvelopeRe.MatchString(value)
}

// splitEnvelope returns the cipher id and payload of an envelope.
func splitEnvelope(envelope string) (cipherID, payload string, err error) {
	m := wholeEnvelopeRe.FindStringSubmatch(envelope)
	if m == nil {
		return "", "", &DecryptionError{Envelope: envelope, Reason: "malformed envelope"}
	}
	return m[1], m[2], nil
}

// wrapEnvelope assembles the envelope text.
func wrapEnvelope(cipherID, payload string) string {
	return envelopePrefix + cipherID + ":" + payload + envelopeSuffix
}

// DecryptAll replaces every envelope substring in text with its
// plaintext. It is used to decrypt generated files, such as
// orchestrator manifests, in bulk before handing them on.
func DecryptAll(enc Encryptor, text string) (string, error) {
	var firstErr error
	out := envelopeRe.ReplaceAllStringFunc(text, func(envelope string) string {
		if firstErr != nil {
			return envelope
		}
		plain, err := enc.Decrypt(envelope)
		if err != nil {
			firstErr = err
			return envelope
		}
		return plain
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// ContainsEnvelope reports whether text holds at least one envelope.
func ContainsEnvelope(text string) bool {
	return strings.Contains(text, envelopePrefix) && envelopeRe.MatchString(text)
}
