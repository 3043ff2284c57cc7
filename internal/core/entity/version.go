package entity

import (
	"encoding/base64"
	"encoding/binary"
	"strings"

	"hesap/internal/core/apperror"
)

// tokenLen is the byte length of a decoded row version token.
const tokenLen = 8

// EncodeToken renders a version as the opaque base64 row version token.
func EncodeToken(version int64) string {
	var buf [tokenLen]byte
	binary.BigEndian.PutUint64(buf[:], uint64(version))
	return base64.StdEncoding.EncodeToString(buf[:])
}

// DecodeToken parses a row version token produced by EncodeToken.
func DecodeToken(token string) (int64, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, apperror.NewFieldValidation("rowVersion", "is required")
	}
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil || len(raw) != tokenLen {
		return 0, apperror.NewFieldValidation("rowVersion", "is not a valid row version")
	}
	v := int64(binary.BigEndian.Uint64(raw))
	if v <= 0 {
		return 0, apperror.NewFieldValidation("rowVersion", "is not a valid row version")
	}
	return v, nil
}

// RowVersion returns the current version as a token.
func (b *BaseEntity) RowVersion() string {
	return EncodeToken(b.Version)
}

// ExpectToken records the caller-observed token as the expected original version.
// Repositories compare it against the stored version at write time.
func (b *BaseEntity) ExpectToken(token string) error {
	v, err := DecodeToken(token)
	if err != nil {
		return err
	}
	b.expected = v
	return nil
}

// ExpectVersion records an expected version directly (internal callers that
// loaded the row under lock).
func (b *BaseEntity) ExpectVersion(v int64) {
	b.expected = v
}

// ExpectedVersion returns the version the next write must match: the recorded
// expectation, or the loaded version when none was recorded.
func (b *BaseEntity) ExpectedVersion() int64 {
	if b.expected != 0 {
		return b.expected
	}
	return b.Version
}

// CheckExpected fails fast when the loaded row already moved past the caller's
// token. The conditional UPDATE still guards the commit itself.
func (b *BaseEntity) CheckExpected(entityName string) error {
	if b.expected != 0 && b.expected != b.Version {
		return apperror.NewConcurrencyConflict(entityName, b.ID)
	}
	return nil
}

// Advance moves the in-memory copy to the version written by a successful update.
func (b *BaseEntity) Advance() {
	b.Version = b.ExpectedVersion() + 1
	b.expected = 0
}
