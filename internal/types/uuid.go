package types

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
)

const (
	UUID_PREFIX_SUBSCRIPTION  = "sub"
	UUID_PREFIX_PAYMENT       = "pay"
	UUID_PREFIX_COUPON        = "coup"
	UUID_PREFIX_COUPON_USAGE  = "cusage"
	UUID_PREFIX_WEBHOOK_EVENT = "webhook"
)

// GenerateUUID returns a lowercase ULID
func GenerateUUID() string {
	return strings.ToLower(ulid.Make().String())
}

// GenerateUUIDWithPrefix returns a lowercase ULID with a prefix ex sub_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}
