package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes the payload with a content-derived ETag and
// answers If-None-Match revalidation with 304.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	etag, ok := etagFor(payload)
	if !ok {
		ctx.JSON(status, payload)
		return
	}

	ctx.Header("ETag", etag)

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, payload)
}

func etagFor(payload interface{}) (string, bool) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", false
	}

	sum := sha256.Sum256(b)

	return `"` + hex.EncodeToString(sum[:]) + `"`, true
}

func etagMatches(headerValue, current string) bool {
	if strings.TrimSpace(headerValue) == "" {
		return false
	}

	if strings.TrimSpace(headerValue) == "*" {
		return true
	}

	want := stripWeakPrefix(current)

	for _, candidate := range strings.Split(headerValue, ",") {
		if stripWeakPrefix(candidate) == want {
			return true
		}
	}

	return false
}

// stripWeakPrefix drops the W/ marker so weak validators still match.
func stripWeakPrefix(raw string) string {
	v := strings.TrimSpace(raw)

	if strings.HasPrefix(v, "W/") {
		v = strings.TrimSpace(strings.TrimPrefix(v, "W/"))
	}

	return v
}
