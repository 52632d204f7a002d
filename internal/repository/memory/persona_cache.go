package memory

import (
	"time"

	"ai-docchat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// PersonaCache keeps resolved personas in memory so each chat turn does
// not re-read a row that almost never changes.
type PersonaCache struct {
	cache *cache.Cache
}

func NewPersonaCache() *PersonaCache {
	// Create a cache with a default expiration time of 1 hour, and which
	// purges expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &PersonaCache{
		cache: c,
	}
}

func (r *PersonaCache) Save(persona *entity.Persona) {
	r.cache.Set(persona.Id.String(), persona, cache.DefaultExpiration)
}

func (r *PersonaCache) Get(id uuid.UUID) (*entity.Persona, bool) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*entity.Persona), true
	}
	return nil, false
}

func (r *PersonaCache) Delete(id uuid.UUID) {
	r.cache.Delete(id.String())
}
