package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/cyberpay-th/cyberpay-backend/internal/domain"
)

const (
	requestBodyLogKey  = "http.request.body.summary"
	responseBodyLogKey = "http.response.body.summary"
	maxLoggedBody      = 2048
)

// secretKeyFragments marks JSON/form keys whose values never reach the log.
// Recovery codes and issued tokens are secrets just like passwords.
var secretKeyFragments = []string{"password", "otp", "token", "secret"}

func registerLogging(e *echo.Echo) {
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			userID := "anonymous"
			if user, ok := c.Get(contextUserKey).(*domain.User); ok && user != nil {
				userID = user.ID.String()
			}

			entry := map[string]interface{}{
				"time":       v.StartTime.Format(time.RFC3339),
				"user_uuid":  userID,
				"latency_ms": v.Latency.Milliseconds(),
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
			}
			if body := c.Get(requestBodyLogKey); body != nil {
				entry["request_body"] = body
			}
			if body := c.Get(responseBodyLogKey); body != nil {
				entry["response_body"] = body
			}
			if v.Error != nil {
				entry["error"] = v.Error.Error()
			}

			buf, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			log.Println(string(buf))
			return nil
		},
	}))

	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		if summary := sanitizeBody(reqBody, c.Request().Header.Get(echo.HeaderContentType)); summary != nil {
			c.Set(requestBodyLogKey, summary)
		}
		if summary := sanitizeBody(resBody, c.Response().Header().Get(echo.HeaderContentType)); summary != nil {
			c.Set(responseBodyLogKey, summary)
		}
	}))
}

func sanitizeBody(body []byte, contentType string) interface{} {
	if len(body) == 0 {
		return nil
	}

	lowered := strings.ToLower(strings.TrimSpace(contentType))
	if strings.HasPrefix(lowered, "multipart/form-data") {
		return sanitizeMultipart(body, strings.TrimSpace(contentType))
	}

	if strings.HasPrefix(lowered, "application/json") || json.Valid(body) {
		var data interface{}
		if err := json.Unmarshal(body, &data); err == nil {
			return clampJSON(sanitizeJSON(data, ""))
		}
	}

	if containsBinaryBytes(body) {
		return "binary"
	}

	text := string(body)
	for _, fragment := range secretKeyFragments {
		if strings.Contains(strings.ToLower(text), fragment) {
			return "redacted"
		}
	}
	return clampString(text)
}

func isSecretKey(key string) bool {
	lowered := strings.ToLower(key)
	for _, fragment := range secretKeyFragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}

func sanitizeJSON(value interface{}, keyHint string) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, val := range v {
			if isSecretKey(key) {
				result[key] = "redacted"
				continue
			}
			result[key] = sanitizeJSON(val, strings.ToLower(key))
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = sanitizeJSON(item, keyHint)
		}
		return result
	case string:
		if keyHint != "" && isSecretKey(keyHint) {
			return "redacted"
		}
		if containsBinaryBytes([]byte(v)) {
			return "binary"
		}
		return clampString(v)
	default:
		return v
	}
}

func sanitizeMultipart(body []byte, contentType string) interface{} {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return "binary"
	}

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	fields := make(map[string]interface{})
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "binary"
		}
		name := part.FormName()
		if name == "" {
			_ = part.Close()
			continue
		}
		switch {
		case part.FileName() != "":
			fields[name] = "binary"
		case isSecretKey(name):
			fields[name] = "redacted"
		default:
			data, err := io.ReadAll(part)
			if err != nil {
				fields[name] = "binary"
			} else {
				fields[name] = clampString(string(data))
			}
		}
		_ = part.Close()
	}
	if len(fields) == 0 {
		return "binary"
	}
	return clampJSON(fields)
}

// clampJSON keeps log lines bounded; oversized payloads are replaced by a
// truncation marker rather than a structural preview.
func clampJSON(value interface{}) interface{} {
	buf, err := json.Marshal(value)
	if err != nil {
		return value
	}
	if len(buf) <= maxLoggedBody {
		return value
	}
	return map[string]interface{}{"_truncated": true, "_bytes": len(buf)}
}

func containsBinaryBytes(data []byte) bool {
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			return true
		}
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return true
		}
		data = data[size:]
	}
	return false
}

func clampString(value string) string {
	if len(value) <= maxLoggedBody {
		return value
	}
	truncated := value[:maxLoggedBody]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "...(truncated)"
}
