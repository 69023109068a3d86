package security

import (
	"errors"
	"fmt"

	"github.com/gorilla/securecookie"
)

// ErrInvalidSignature は署名付きの値を検証できなかった場合のエラー。
var ErrInvalidSignature = errors.New("invalid signature")

// signedCookieName は署名対象のCookie名。securecookieは名前もMACに含める。
const signedCookieName = "session_id"

// CookieSigner はセッションCookie値にHMAC-SHA256署名とタイムスタンプを付与・検証する。
// 値は暗号化せず、改ざん検知のみを行う。
type CookieSigner struct {
	codec *securecookie.SecureCookie
}

// NewCookieSigner はCookieSignerを生成する。
// maxAgeは署名のタイムスタンプの有効期間（秒）。0の場合は期限を検証しない。
func NewCookieSigner(secret string, maxAge int) *CookieSigner {
	codec := securecookie.New([]byte(secret), nil)
	codec.MaxAge(maxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &CookieSigner{codec: codec}
}

// Sign は値に署名を付与する。
func (s *CookieSigner) Sign(value string) (string, error) {
	signed, err := s.codec.Encode(signedCookieName, value)
	if err != nil {
		return "", fmt.Errorf("failed to sign cookie value: %w", err)
	}
	return signed, nil
}

// Verify は署名を検証し、元の値を返す。
func (s *CookieSigner) Verify(signed string) (string, error) {
	var value string
	if err := s.codec.Decode(signedCookieName, signed, &value); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if value == "" {
		return "", ErrInvalidSignature
	}
	return value, nil
}
