package httpx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/gofrs/uuid"
)

var (
	_ Authenticator = BearerAuth{}
	_ Authenticator = (*HMACAuth)(nil)
)

// BearerAuth Authorization: Bearer <token>
type BearerAuth struct {
	Token string
}

func (a BearerAuth) Authenticate(req *http.Request, _ []byte) error {
	req.Header.Set("Authorization", "Bearer "+a.Token)
	return nil
}

const (
	HeaderAccessCode = "RT-AccessCode"
	HeaderTimestamp  = "RT-Timestamp"
	HeaderRequestID  = "RT-RequestID"
	HeaderSignature  = "RT-Signature"
)

// HMACAuth 签名头认证。
// 签名 = hex(HMAC-SHA256(secret, timestamp + requestID + body))
type HMACAuth struct {
	accessCode string
	secret     string
	now        func() time.Time
	requestID  func() (string, error)
}

func NewHMACAuth(accessCode, secret string) *HMACAuth {
	return &HMACAuth{
		accessCode: accessCode,
		secret:     secret,
		now:        time.Now,
		requestID: func() (string, error) {
			id, err := uuid.NewV4()
			if err != nil {
				return "", err
			}
			return id.String(), nil
		},
	}
}

func (a *HMACAuth) Authenticate(req *http.Request, body []byte) error {
	requestID, err := a.requestID()
	if err != nil {
		return err
	}
	timestamp := strconv.FormatInt(a.now().UnixMilli(), 10)
	req.Header.Set(HeaderAccessCode, a.accessCode)
	req.Header.Set(HeaderTimestamp, timestamp)
	req.Header.Set(HeaderRequestID, requestID)
	req.Header.Set(HeaderSignature, Sign(a.secret, timestamp, requestID, body))
	return nil
}

// Sign 计算签名，供应商侧用同样的方式校验
func Sign(secret, timestamp, requestID string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte(requestID))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
