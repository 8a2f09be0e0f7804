package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SessionTokenKey returns the cache key holding the bearer token of a console namespace.
func (r *CacheKeyStruct) SessionTokenKey(namespace string) string {
	return fmt.Sprintf("quickquiz:session:%s:token", namespace)
}

// SessionUserKey returns the cache key holding the serialized user of a console namespace.
func (r *CacheKeyStruct) SessionUserKey(namespace string) string {
	return fmt.Sprintf("quickquiz:session:%s:user", namespace)
}

var CacheKey = NewCacheKeyStruct()
