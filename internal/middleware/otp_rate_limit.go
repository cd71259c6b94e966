package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// OTPRateLimit limits OTP issuance per phone number (falling back to client
// IP) using Redis if available. The window is fixed at one minute.
func OTPRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 3
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		var req struct {
			PhoneNumber string `json:"phone_number"`
		}
		_ = c.BodyParser(&req)
		phone := strings.TrimSpace(req.PhoneNumber)
		if phone == "" {
			phone = c.IP()
		}
		key := "rl:otp:" + phone
		cnt, err := cache.Incr(c.UserContext(), key).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), key, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many otp requests, try again later")
		}
		return c.Next()
	}
}
