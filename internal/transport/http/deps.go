package http

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vehicle-market-api/internal/infrastructure/dynamo"
	"github.com/vehicle-market-api/internal/infrastructure/google"
	jwtinfra "github.com/vehicle-market-api/internal/infrastructure/jwt"
	redisinfra "github.com/vehicle-market-api/internal/infrastructure/redis"
	s3infra "github.com/vehicle-market-api/internal/infrastructure/s3"
	"github.com/vehicle-market-api/internal/infrastructure/smtp"
	"github.com/vehicle-market-api/internal/infrastructure/sns"
	"github.com/vehicle-market-api/internal/infrastructure/sqlstore"
)

// Per-email throttles on code issuance and reset-code checks.
const (
	limitWindow     = 15 * time.Minute
	loginLimit      = 5
	forgotLimit     = 5
	resetCheckLimit = 10
)

// Deps holds all infrastructure dependencies for the router. S3Store, Events,
// Google and Redis are optional and may be nil.
type Deps struct {
	UserRepo         *sqlstore.UserRepo
	VehicleRepo      *sqlstore.VehicleRepo
	OpinionRepo      *sqlstore.OpinionRepo
	FavoriteRepo     *sqlstore.FavoriteRepo
	ComparisonRepo   *sqlstore.ComparisonRepo
	PreferenceRepo   *sqlstore.PreferenceRepo
	VerificationRepo *dynamo.VerificationRepo
	S3Store          *s3infra.Store
	Mailer           smtp.Mailer
	Events           *sns.Publisher
	Google           *google.Verifier
	Redis            redis.UniversalClient
	JWTProvider      *jwtinfra.Provider
}

// limiters are the per-email throttles, nil when Redis is not configured.
type limiters struct {
	login, forgot, resetCheck *redisinfra.Limiter
}

func (d *Deps) limiters() limiters {
	if d.Redis == nil {
		return limiters{}
	}
	return limiters{
		login:      redisinfra.NewLimiter(d.Redis, "rl:login", loginLimit, limitWindow),
		forgot:     redisinfra.NewLimiter(d.Redis, "rl:forgot", forgotLimit, limitWindow),
		resetCheck: redisinfra.NewLimiter(d.Redis, "rl:reset-check", resetCheckLimit, limitWindow),
	}
}
