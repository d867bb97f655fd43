package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/SRUJA-N/patient-management-system/internal/domain/patient"

	"github.com/redis/go-redis/v9"
)

// Short TTL keeps reads fast without serving long-stale records after an
// update or delete.
const patientCacheTTL = 2 * time.Second

type GetPatient struct {
	redisClient *redis.Client
	patientRepo patient.Repository
}

func NewGetPatient(redisClient *redis.Client, patientRepo patient.Repository) *GetPatient {
	return &GetPatient{
		redisClient: redisClient,
		patientRepo: patientRepo,
	}
}

// Execute reads through a short-lived Redis cache. Cache misses and cache
// errors fall back to the store.
func (uc *GetPatient) Execute(ctx context.Context, id string) (*patient.Patient, error) {
	cacheKey := fmt.Sprintf("patient:%s", id)

	if uc.redisClient != nil {
		val, err := uc.redisClient.Get(ctx, cacheKey).Result()
		if err == nil {
			var p patient.Patient
			if err := json.Unmarshal([]byte(val), &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := uc.patientRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(p); err == nil {
			uc.redisClient.Set(ctx, cacheKey, data, patientCacheTTL)
		}
	}

	return p, nil
}
