package log

import (
	"net/url"
	"strings"
)

// sensitiveKeywords 键名命中即打码。
// 账本场景下最危险的是签名材料：私钥、助记词、种子。
var sensitiveKeywords = []string{
	"password", "passwd", "pwd",
	"api_key", "apikey", "api-key",
	"token", "access_token", "admin_token",
	"secret", "auth", "authorization",
	"credential", "private_key", "privatekey",
	"mnemonic", "seed", "signing_key",
}

// SanitizeField masks the value when the key looks sensitive. Endpoint and
// URL keys get URL-aware stripping, email keys keep a short prefix, keyword
// matches keep only the first and last four characters.
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	lowerKey := strings.ToLower(key)
	switch {
	case strings.Contains(lowerKey, "endpoint"), strings.Contains(lowerKey, "url"):
		return SanitizeEndpoint(value)
	case strings.Contains(lowerKey, "email"), strings.Contains(lowerKey, "mail"):
		return sanitizeEmail(value)
	case isSensitiveKey(lowerKey):
		return sanitizeToken(value)
	}
	return value
}

func isSensitiveKey(lowerKey string) bool {
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lowerKey, kw) {
			return true
		}
	}
	return false
}

// SanitizeEndpoint strips credentials from an RPC endpoint URL before
// logging: userinfo is removed entirely and every query parameter value is
// masked, since providers commonly embed API keys in both places. Values
// that do not look like URLs pass through unchanged.
func SanitizeEndpoint(value string) string {
	if !strings.Contains(value, "://") {
		return value
	}

	u, err := url.Parse(value)
	if err != nil {
		// 解析失败时整体打码
		return sanitizeToken(value)
	}

	u.User = nil
	if q := u.Query(); len(q) > 0 {
		for key, vals := range q {
			for i := range vals {
				vals[i] = sanitizeToken(vals[i])
			}
			q[key] = vals
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// sanitizeToken 长值保留首尾各 4 位，短值只保留首尾各 1 位
func sanitizeToken(value string) string {
	n := len(value)
	switch {
	case n > 8:
		return value[:4] + strings.Repeat("*", n-8) + value[n-4:]
	case n > 2:
		return value[:1] + strings.Repeat("*", n-2) + value[n-1:]
	default:
		return strings.Repeat("*", n)
	}
}

// sanitizeEmail 保留本地部分前 3 位与完整域名
func sanitizeEmail(value string) string {
	local, domain, ok := strings.Cut(value, "@")
	if !ok || strings.Contains(domain, "@") {
		return strings.Repeat("*", len(value))
	}

	switch {
	case len(local) > 3:
		return local[:3] + "***@" + domain
	case len(local) == 0:
		return "@" + domain
	default:
		return local[:1] + strings.Repeat("*", len(local)-1) + "@" + domain
	}
}
