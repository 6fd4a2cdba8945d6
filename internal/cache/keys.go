package cache

import "strings"

const (
	GlobalKeyPrefix = "quizdrill"
)

// GenerateKeyWithPrefix builds a record key for a service, object type and
// identifier under prefix, so several trainers can share one Redis database
// or table. An empty prefix falls back to GlobalKeyPrefix. If paramsKey are
// provided, they are joined by "_" and appended to the key.
func GenerateKeyWithPrefix(prefix, serviceName, objectType, identifier string, paramsKey ...string) string {
	if prefix == "" {
		prefix = GlobalKeyPrefix
	}
	baseKey := strings.Join([]string{prefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}
