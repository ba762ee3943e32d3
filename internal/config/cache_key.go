package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// DeviceCredentialsKey holds the upstream bearer token for a device
func (r *CacheKeyStruct) DeviceCredentialsKey(deviceID string) string {
	return fmt.Sprintf("device:%s:credentials", deviceID)
}

// DeviceSessionKey holds the JTI of a device's current gateway token
func (r *CacheKeyStruct) DeviceSessionKey(deviceID string) string {
	return fmt.Sprintf("device:%s:session", deviceID)
}

// DeviceRecoveryKey is the in-flight flag for a device's guest recovery
func (r *CacheKeyStruct) DeviceRecoveryKey(deviceID string) string {
	return fmt.Sprintf("device:%s:recovery", deviceID)
}

// QuestionPoolKey caches an upstream question listing
func (r *CacheKeyStruct) QuestionPoolKey(questionType, categoryID string) string {
	if categoryID == "" {
		categoryID = "all"
	}
	return fmt.Sprintf("questions:%s:%s", questionType, categoryID)
}

var CacheKey = NewCacheKeyStruct()
